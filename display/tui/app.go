// Package tui renders the live process monitor: a scrollable process
// table over the engine's published snapshots, with sorting, filtering,
// app grouping, termination, and the system-wide bottom bar.
package tui

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sys/unix"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/monitor"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/sortgroup"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/terminate"
)

// statusLifetime is how long transient status messages stay visible.
const statusLifetime = 3 * time.Second

// Controller is the engine surface the TUI drives. Publications flow the
// other way, delivered as PublishMsg values.
type Controller interface {
	RequestRefresh(ctx context.Context)
	SetSortKey(key sortgroup.Key, descending bool)
	SetFilter(text string)
	ForgetProcess(pids ...int32)
}

// Killer delivers termination signals.
type Killer interface {
	Signal(ctx context.Context, pid int32, sig syscall.Signal) terminate.Result
}

// PublishMsg carries one published snapshot into the model. The wiring
// layer sends it from the engine's publish callback.
type PublishMsg monitor.Published

// killDoneMsg reports a finished termination attempt.
type killDoneMsg struct {
	pid    int32
	name   string
	result terminate.Result
}

// clearStatusMsg expires the transient status line.
type clearStatusMsg struct{ seq int }

// pendingKill is a termination awaiting confirmation.
type pendingKill struct {
	pid   int32
	name  string
	force bool
}

// Model is the top-level Bubbletea model for the processpilot TUI.
type Model struct {
	ctl    Controller
	killer Killer

	width  int
	height int
	ready  bool

	pub     monitor.Published
	havePub bool

	sortKey    sortgroup.Key
	descending bool
	grouped    bool

	selected int
	offset   int

	filterInput textinput.Model
	filtering   bool

	confirmKill bool
	confirm     *pendingKill

	status    string
	statusSeq int

	help     help.Model
	showHelp bool
}

// NewModel returns an initialized Model.
func NewModel(ctl Controller, killer Killer, sortKey sortgroup.Key, descending, grouped, confirmKill bool) Model {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/"
	ti.CharLimit = 64

	return Model{
		ctl:         ctl,
		killer:      killer,
		sortKey:     sortKey,
		descending:  descending,
		grouped:     grouped,
		confirmKill: confirmKill,
		filterInput: ti,
		help:        help.New(),
	}
}

// Init implements tea.Model. No initial commands are needed; the engine
// pushes the first publication.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case PublishMsg:
		m.pub = monitor.Published(msg)
		m.havePub = true
		m.clampSelection()
		return m, nil

	case killDoneMsg:
		return m.finishKill(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey routes key presses through the filter prompt and kill
// confirmation before the normal bindings.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.updateFilter(msg)
	}

	if m.confirm != nil {
		pending := *m.confirm
		m.confirm = nil
		if msg.String() == "y" || msg.String() == "Y" {
			return m, m.killCmd(pending)
		}
		m.status = "termination cancelled"
		cmd := m.expireStatus()
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.ScrollUp):
		m.moveSelection(-1)
	case key.Matches(msg, keys.ScrollDown):
		m.moveSelection(1)
	case key.Matches(msg, keys.PageUp):
		m.moveSelection(-m.tableHeight())
	case key.Matches(msg, keys.PageDown):
		m.moveSelection(m.tableHeight())
	case key.Matches(msg, keys.GoTop):
		m.selected = 0
		m.clampSelection()
	case key.Matches(msg, keys.GoBottom):
		m.selected = m.rowCount() - 1
		m.clampSelection()

	case key.Matches(msg, keys.SortCPU):
		m.sortKey = sortgroup.KeyCPU
		m.ctl.SetSortKey(m.sortKey, m.descending)
		return m, m.refreshCmd()
	case key.Matches(msg, keys.SortMemory):
		m.sortKey = sortgroup.KeyMemory
		m.ctl.SetSortKey(m.sortKey, m.descending)
		return m, m.refreshCmd()
	case key.Matches(msg, keys.ToggleOrder):
		m.descending = !m.descending
		m.ctl.SetSortKey(m.sortKey, m.descending)
		return m, m.refreshCmd()

	case key.Matches(msg, keys.ToggleGroup):
		m.grouped = !m.grouped
		m.selected = 0
		m.offset = 0

	case key.Matches(msg, keys.Filter):
		m.filtering = true
		m.filterInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Kill):
		return m.startKill(false)
	case key.Matches(msg, keys.ForceKill):
		return m.startKill(true)

	case key.Matches(msg, keys.Refresh):
		return m, m.refreshCmd()

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

// updateFilter handles keys while the filter prompt is focused. Filter
// changes apply live; enter commits, escape clears.
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filtering = false
		m.filterInput.Blur()
		return m, m.refreshCmd()
	case tea.KeyEscape:
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		m.ctl.SetFilter("")
		return m, m.refreshCmd()
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.ctl.SetFilter(m.filterInput.Value())
	return m, tea.Batch(cmd, m.refreshCmd())
}

// startKill begins termination of the selected process, via the
// confirmation prompt when configured.
func (m Model) startKill(force bool) (tea.Model, tea.Cmd) {
	rec, ok := m.selectedRecord()
	if !ok {
		m.status = "no process selected"
		cmd := m.expireStatus()
		return m, cmd
	}

	pending := pendingKill{pid: rec.PID, name: rec.Name, force: force}
	if m.confirmKill {
		m.confirm = &pending
		return m, nil
	}
	return m, m.killCmd(pending)
}

// killCmd delivers the signal off the update loop.
func (m Model) killCmd(pending pendingKill) tea.Cmd {
	sig := unix.SIGTERM
	if pending.force {
		sig = unix.SIGKILL
	}
	killer := m.killer
	return func() tea.Msg {
		res := killer.Signal(context.Background(), pending.pid, sig)
		return killDoneMsg{pid: pending.pid, name: pending.name, result: res}
	}
}

// finishKill reports the outcome and refreshes so the table reflects it.
// When the process is gone, its delta and smoothing state is purged so a
// reused PID starts from a fresh baseline.
func (m Model) finishKill(msg killDoneMsg) (tea.Model, tea.Cmd) {
	switch msg.result.Status {
	case terminate.StatusSuccess:
		m.ctl.ForgetProcess(msg.pid)
		m.status = fmt.Sprintf("terminated %s (%d)", msg.name, msg.pid)
	case terminate.StatusPermissionDenied:
		m.status = fmt.Sprintf("permission denied for %s (%d)", msg.name, msg.pid)
	case terminate.StatusNotFound:
		m.ctl.ForgetProcess(msg.pid)
		m.status = fmt.Sprintf("%s (%d) already gone", msg.name, msg.pid)
	default:
		m.status = fmt.Sprintf("could not terminate %s (%d): %s", msg.name, msg.pid, msg.result.Detail)
	}
	cmd := tea.Batch(m.refreshCmd(), m.expireStatus())
	return m, cmd
}

// refreshCmd asks the engine for a new sample without blocking the UI.
func (m Model) refreshCmd() tea.Cmd {
	ctl := m.ctl
	return func() tea.Msg {
		ctl.RequestRefresh(context.Background())
		return nil
	}
}

// expireStatus schedules the status line to clear.
func (m *Model) expireStatus() tea.Cmd {
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusLifetime, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// moveSelection shifts the cursor and keeps it inside the visible window.
func (m *Model) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
}

// clampSelection bounds the cursor and scroll offset to the current rows.
func (m *Model) clampSelection() {
	count := m.rowCount()
	if count == 0 {
		m.selected, m.offset = 0, 0
		return
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= count {
		m.selected = count - 1
	}

	visible := m.tableHeight()
	if visible < 1 {
		visible = 1
	}
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
}

// rowCount is the number of selectable rows in the current view mode.
func (m Model) rowCount() int {
	if !m.havePub {
		return 0
	}
	if m.grouped {
		return len(m.pub.Groups)
	}
	return len(m.pub.Records)
}
