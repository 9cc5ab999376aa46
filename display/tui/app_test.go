package tui

import (
	"context"
	"strings"
	"syscall"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sys/unix"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/history"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/monitor"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/sortgroup"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/terminate"
)

type fakeController struct {
	refreshes int
	sortKey   sortgroup.Key
	desc      bool
	filter    string
	forgotten []int32
}

func (f *fakeController) RequestRefresh(ctx context.Context) { f.refreshes++ }
func (f *fakeController) SetSortKey(key sortgroup.Key, descending bool) {
	f.sortKey, f.desc = key, descending
}
func (f *fakeController) SetFilter(text string) { f.filter = text }
func (f *fakeController) ForgetProcess(pids ...int32) {
	f.forgotten = append(f.forgotten, pids...)
}

type fakeKiller struct {
	pid    int32
	sig    syscall.Signal
	result terminate.Result
}

func (f *fakeKiller) Signal(ctx context.Context, pid int32, sig syscall.Signal) terminate.Result {
	f.pid, f.sig = pid, sig
	return f.result
}

func samplePublished() monitor.Published {
	return monitor.Published{
		Records: []procsnap.ProcessRecord{
			{PID: 10, Name: "Safari", User: "alice", CPUPercent: 40, MemoryMB: 300},
			{PID: 20, Name: "launchd", User: "root", CPUPercent: 1, MemoryMB: 10, IsSystem: true, IsCritical: true},
			{PID: 30, Name: "stress", User: "alice", CPUPercent: 90, MemoryMB: 50},
		},
		Groups: []procsnap.ProcessGroup{
			{Name: "Safari", CPUPercent: 40, MemoryMB: 300, Records: make([]procsnap.ProcessRecord, 1)},
			{Name: sortgroup.SystemGroupName, CPUPercent: 1, MemoryMB: 10, IsSystem: true, Records: make([]procsnap.ProcessRecord, 1)},
		},
		CPU: history.CPUSection{
			User: 25, System: 10, Idle: 65,
			UserHistory:   []float64{20, 25},
			SystemHistory: []float64{8, 10},
			IdleHistory:   []float64{72, 65},
		},
		Memory: history.MemorySection{
			Pressure:        0.4,
			PressureHistory: []float64{0.35, 0.4},
		},
		Sequence:  1,
		Timestamp: time.Now(),
	}
}

func newTestModel(t *testing.T, ctl Controller, killer Killer) Model {
	t.Helper()
	m := NewModel(ctl, killer, sortgroup.KeyCPU, true, false, true)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	updated, _ = m.Update(PublishMsg(samplePublished()))
	return updated.(Model)
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestViewRendersProcessRows(t *testing.T) {
	m := newTestModel(t, &fakeController{}, &fakeKiller{})

	out := m.View()
	for _, want := range []string{"processpilot", "Safari", "launchd", "stress", "CPU", "MEM"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSortKeyBinding(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl, &fakeKiller{})

	updated, cmd := m.Update(keyPress('m'))
	m = updated.(Model)
	if ctl.sortKey != sortgroup.KeyMemory {
		t.Errorf("controller sort key = %v, want memory", ctl.sortKey)
	}
	if cmd == nil {
		t.Error("sort change did not schedule a refresh")
	}

	updated, _ = m.Update(keyPress('o'))
	m = updated.(Model)
	if ctl.desc {
		t.Error("order toggle did not flip to ascending")
	}
	_ = m
}

func TestGroupToggleSwitchesRows(t *testing.T) {
	m := newTestModel(t, &fakeController{}, &fakeKiller{})

	updated, _ := m.Update(keyPress('a'))
	m = updated.(Model)
	if !m.grouped {
		t.Fatal("'a' did not enable grouping")
	}
	out := m.View()
	if !strings.Contains(out, "APP") {
		t.Errorf("grouped view missing group header")
	}
	if !strings.Contains(out, sortgroup.SystemGroupName) {
		t.Errorf("grouped view missing system bucket")
	}
}

func TestFilterFlow(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl, &fakeKiller{})

	updated, _ := m.Update(keyPress('/'))
	m = updated.(Model)
	if !m.filtering {
		t.Fatal("'/' did not open the filter prompt")
	}

	updated, _ = m.Update(keyPress('s'))
	m = updated.(Model)
	if ctl.filter != "s" {
		t.Errorf("filter not applied live, controller saw %q", ctl.filter)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if m.filtering {
		t.Error("enter did not close the filter prompt")
	}

	updated, _ = m.Update(keyPress('/'))
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(Model)
	if ctl.filter != "" {
		t.Errorf("escape did not clear the filter, controller saw %q", ctl.filter)
	}
}

func TestKillConfirmFlow(t *testing.T) {
	ctl := &fakeController{}
	killer := &fakeKiller{result: terminate.Result{Status: terminate.StatusSuccess}}
	m := newTestModel(t, ctl, killer)

	updated, _ := m.Update(keyPress('x'))
	m = updated.(Model)
	if m.confirm == nil {
		t.Fatal("'x' did not prompt for confirmation")
	}
	if m.confirm.pid != 10 {
		t.Errorf("confirmation targets PID %d, want 10 (selected row)", m.confirm.pid)
	}
	if !strings.Contains(m.View(), "y/N") {
		t.Error("confirmation prompt not rendered")
	}

	updated, cmd := m.Update(keyPress('y'))
	m = updated.(Model)
	if m.confirm != nil {
		t.Fatal("confirmation not consumed by 'y'")
	}
	if cmd == nil {
		t.Fatal("'y' did not schedule the kill")
	}
	msg := cmd()
	done, ok := msg.(killDoneMsg)
	if !ok {
		t.Fatalf("kill command returned %T, want killDoneMsg", msg)
	}
	if killer.pid != 10 || killer.sig != unix.SIGTERM {
		t.Errorf("killer saw (%d, %v), want (10, SIGTERM)", killer.pid, killer.sig)
	}

	updated, _ = m.Update(done)
	m = updated.(Model)
	if !strings.Contains(m.status, "terminated Safari") {
		t.Errorf("status = %q, want termination report", m.status)
	}
	if len(ctl.forgotten) != 1 || ctl.forgotten[0] != 10 {
		t.Errorf("forgotten PIDs = %v, want [10]", ctl.forgotten)
	}
}

func TestKillDeclined(t *testing.T) {
	killer := &fakeKiller{}
	m := newTestModel(t, &fakeController{}, killer)

	updated, _ := m.Update(keyPress('x'))
	m = updated.(Model)
	updated, _ = m.Update(keyPress('n'))
	m = updated.(Model)
	if m.confirm != nil {
		t.Error("declining did not dismiss the prompt")
	}
	if killer.pid != 0 {
		t.Error("declined kill still signalled the process")
	}
}

func TestForceKillUsesSIGKILL(t *testing.T) {
	killer := &fakeKiller{result: terminate.Result{Status: terminate.StatusSuccess}}
	m := NewModel(&fakeController{}, killer, sortgroup.KeyCPU, true, false, false)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	updated, _ = m.Update(PublishMsg(samplePublished()))
	m = updated.(Model)

	// Confirmation disabled: the kill runs immediately.
	_, cmd := m.Update(keyPress('X'))
	if cmd == nil {
		t.Fatal("force kill scheduled nothing")
	}
	cmd()
	if killer.sig != unix.SIGKILL {
		t.Errorf("force kill sent %v, want SIGKILL", killer.sig)
	}
}

func TestKillInGroupedModeRefused(t *testing.T) {
	killer := &fakeKiller{}
	m := newTestModel(t, &fakeController{}, killer)

	updated, _ := m.Update(keyPress('a'))
	m = updated.(Model)
	updated, _ = m.Update(keyPress('x'))
	m = updated.(Model)
	if m.confirm != nil {
		t.Error("group row offered a kill confirmation")
	}
	if killer.pid != 0 {
		t.Error("group row kill signalled a process")
	}
}

func TestSelectionClampsToPublication(t *testing.T) {
	m := newTestModel(t, &fakeController{}, &fakeKiller{})

	updated, _ := m.Update(keyPress('G'))
	m = updated.(Model)
	if m.selected != 2 {
		t.Fatalf("G moved selection to %d, want 2", m.selected)
	}

	// Next publication has fewer rows; the cursor must follow.
	shrunk := samplePublished()
	shrunk.Records = shrunk.Records[:1]
	updated, _ = m.Update(PublishMsg(shrunk))
	m = updated.(Model)
	if m.selected != 0 {
		t.Errorf("selection = %d after shrink, want 0", m.selected)
	}
}

func TestManualRefreshBinding(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl, &fakeKiller{})

	_, cmd := m.Update(keyPress('r'))
	if cmd == nil {
		t.Fatal("'r' scheduled nothing")
	}
	cmd()
	if ctl.refreshes != 1 {
		t.Errorf("controller saw %d refreshes, want 1", ctl.refreshes)
	}
}
