package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/display/widgets"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/internal/format"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/procsnap"
	"github.com/Hiroto-Iwasaki/ProcessPilot-sub000/sortgroup"
)

// chromeHeight is the number of terminal rows reserved around the table:
// header, table header, bottom bar, status, and footer.
const chromeHeight = 8

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderTable(),
		m.renderBottomBar(),
		m.renderStatusLine(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// tableHeight is the number of process rows that fit on screen.
func (m Model) tableHeight() int {
	h := m.height - chromeHeight
	if h < 1 {
		return 1
	}
	return h
}

// selectedRecord resolves the cursor to a process record. Group rows are
// not killable, so grouped mode never yields one.
func (m Model) selectedRecord() (procsnap.ProcessRecord, bool) {
	if !m.havePub || m.grouped {
		return procsnap.ProcessRecord{}, false
	}
	if m.selected < 0 || m.selected >= len(m.pub.Records) {
		return procsnap.ProcessRecord{}, false
	}
	return m.pub.Records[m.selected], true
}

// renderHeader renders the title line with the current view mode.
func (m Model) renderHeader() string {
	title := styleTitle.Render("processpilot")

	sortName := "cpu"
	if m.sortKey == sortgroup.KeyMemory {
		sortName = "mem"
	}
	order := "desc"
	if !m.descending {
		order = "asc"
	}
	mode := fmt.Sprintf("  sort:%s/%s", sortName, order)
	if m.grouped {
		mode += "  grouped"
	}

	var filter string
	if m.filtering {
		filter = "  " + m.filterInput.View()
	} else if v := m.filterInput.Value(); v != "" {
		filter = fmt.Sprintf("  filter:%q", v)
	}

	var updated string
	if m.havePub {
		updated = "  updated " + format.FormatTimeSince(m.pub.Timestamp)
	}

	return styleHeader.Width(m.width).Render(title + styleFooter.Render(mode+filter+updated))
}

// renderTable renders the scrollable process or group table.
func (m Model) renderTable() string {
	if !m.havePub {
		return styleFooter.Render("waiting for first sample...")
	}
	if m.grouped {
		return m.renderGroupRows()
	}
	return m.renderProcessRows()
}

func (m Model) renderProcessRows() string {
	nameWidth := m.width - 46
	if nameWidth < 12 {
		nameWidth = 12
	}

	header := fmt.Sprintf("  %7s  %-*s  %6s  %9s  %-10s",
		"PID", nameWidth, "NAME", "CPU%", "MEM", "USER")
	lines := []string{styleTableHeader.Render(header)}

	visible := m.tableHeight()
	end := m.offset + visible
	if end > len(m.pub.Records) {
		end = len(m.pub.Records)
	}
	for i := m.offset; i < end; i++ {
		rec := m.pub.Records[i]

		marker := " "
		if rec.IsCritical {
			marker = styleCritical.Render("!")
		}
		line := fmt.Sprintf("%s %7d  %-*s  %6.1f  %9s  %-10s",
			marker,
			rec.PID,
			nameWidth, format.TruncateWithEllipsis(rec.Name, nameWidth),
			rec.CPUPercent,
			format.FormatMemory(rec.MemoryMB),
			format.TruncateWithEllipsis(rec.User, 10),
		)

		lines = append(lines, m.rowStyle(i, rec.IsSystem).Render(line))
	}

	return m.padTable(lines, visible)
}

func (m Model) renderGroupRows() string {
	nameWidth := m.width - 36
	if nameWidth < 12 {
		nameWidth = 12
	}

	header := fmt.Sprintf("  %-*s  %5s  %6s  %9s", nameWidth, "APP", "PROCS", "CPU%", "MEM")
	lines := []string{styleTableHeader.Render(header)}

	visible := m.tableHeight()
	end := m.offset + visible
	if end > len(m.pub.Groups) {
		end = len(m.pub.Groups)
	}
	for i := m.offset; i < end; i++ {
		g := m.pub.Groups[i]
		line := fmt.Sprintf("  %-*s  %5d  %6.1f  %9s",
			nameWidth, format.TruncateWithEllipsis(g.Name, nameWidth),
			g.Count(),
			g.CPUPercent,
			format.FormatMemory(g.MemoryMB),
		)
		lines = append(lines, m.rowStyle(i, g.IsSystem).Render(line))
	}

	return m.padTable(lines, visible)
}

// rowStyle picks the style for a table row at absolute index i.
func (m Model) rowStyle(i int, system bool) lipgloss.Style {
	if i == m.selected {
		return styleSelectedRow
	}
	if system {
		return styleSystemRow
	}
	return styleRow
}

// padTable fills unused table rows so the bottom bar stays anchored.
func (m Model) padTable(lines []string, visible int) string {
	for len(lines) < visible+1 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderBottomBar renders the system-wide CPU and memory charts.
func (m Model) renderBottomBar() string {
	if !m.havePub {
		return ""
	}

	sparkWidth := m.width/2 - 30
	if sparkWidth < 10 {
		sparkWidth = 10
	}

	cpu := m.pub.CPU
	cpuLine := fmt.Sprintf("CPU  user %5s  sys %5s  idle %5s  %s",
		format.FormatPercent(cpu.User),
		format.FormatPercent(cpu.System),
		format.FormatPercent(cpu.Idle),
		widgets.RenderSparkline(widgets.SparklineConfig{
			Data:  combinedBusy(cpu.UserHistory, cpu.SystemHistory),
			Width: sparkWidth,
			Max:   100,
			Color: colorSecondary,
		}),
	)

	mem := m.pub.Memory
	memLine := fmt.Sprintf("MEM  %s  %s",
		widgets.RenderMiniGauge(mem.Pressure*100, 20),
		widgets.RenderSparkline(widgets.SparklineConfig{
			Data:  mem.PressureHistory,
			Width: sparkWidth,
			Max:   1,
			Color: colorPrimary,
		}),
	)

	return cpuLine + "\n" + memLine
}

// combinedBusy sums the user and system series pointwise for the CPU
// sparkline.
func combinedBusy(user, system []float64) []float64 {
	n := len(user)
	if len(system) < n {
		n = len(system)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = user[i] + system[i]
	}
	return out
}

// renderStatusLine shows the kill confirmation prompt or the transient
// status message.
func (m Model) renderStatusLine() string {
	if m.confirm != nil {
		verb := "terminate"
		if m.confirm.force {
			verb = "force kill"
		}
		return styleConfirm.Render(fmt.Sprintf("%s %s (%d)? y/N", verb, m.confirm.name, m.confirm.pid))
	}
	if m.status != "" {
		return styleStatus.Render(m.status)
	}
	return ""
}

// renderFooter renders the help line.
func (m Model) renderFooter() string {
	if m.showHelp {
		return styleFooter.Width(m.width).Render(m.help.FullHelpView(keys.FullHelp()))
	}
	return styleFooter.Width(m.width).Render(m.help.ShortHelpView(keys.ShortHelp()))
}
