package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Alignment controls text alignment within a table column.
type Alignment int

const (
	// AlignLeft aligns text to the left (default).
	AlignLeft Alignment = iota
	// AlignRight aligns text to the right.
	AlignRight
)

// Column defines a single table column.
type Column struct {
	// Title is the header text.
	Title string
	// Width is the fixed character width. If 0, auto-calculated from content.
	Width int
	// Align controls text alignment within the column.
	Align Alignment
}

// TableConfig holds the configuration for rendering a table.
type TableConfig struct {
	// Columns defines the table structure.
	Columns []Column
	// Rows is the table data. Each row is a slice of cell strings.
	Rows [][]string
	// MaxWidth is the maximum total table width. Columns are shrunk if needed.
	MaxWidth int
	// ShowHeader controls whether the header row is displayed.
	ShowHeader bool
	// HeaderStyle is the lipgloss style for the header row.
	HeaderStyle lipgloss.Style
	// RowStyle is the lipgloss style for data rows.
	RowStyle lipgloss.Style
	// Separator is the column separator string (default: "  ").
	Separator string
}

// DefaultTableConfig returns a TableConfig with sensible defaults.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		ShowHeader:  true,
		Separator:   "  ",
		HeaderStyle: lipgloss.NewStyle().Bold(true),
		RowStyle:    lipgloss.NewStyle(),
	}
}

// RenderTable renders a formatted text table from the given configuration.
func RenderTable(cfg TableConfig) string {
	if len(cfg.Columns) == 0 {
		return ""
	}
	if cfg.Separator == "" {
		cfg.Separator = "  "
	}

	widths := calculateColumnWidths(cfg.Columns, cfg.Rows, cfg.MaxWidth, len(cfg.Separator))

	var lines []string
	if cfg.ShowHeader {
		headerCells := make([]string, len(cfg.Columns))
		for i, col := range cfg.Columns {
			headerCells[i] = padOrTruncate(col.Title, widths[i], col.Align)
		}
		lines = append(lines, cfg.HeaderStyle.Render(strings.Join(headerCells, cfg.Separator)))
	}

	for _, row := range cfg.Rows {
		cells := make([]string, len(cfg.Columns))
		for i := range cfg.Columns {
			cellText := ""
			if i < len(row) {
				cellText = row[i]
			}
			cells[i] = padOrTruncate(cellText, widths[i], cfg.Columns[i].Align)
		}
		lines = append(lines, cfg.RowStyle.Render(strings.Join(cells, cfg.Separator)))
	}

	return strings.Join(lines, "\n")
}

// padOrTruncate pads or truncates a string to the given width with the
// specified alignment.
func padOrTruncate(s string, width int, align Alignment) string {
	if width <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) > width {
		if width <= 1 {
			return string(runes[:width])
		}
		return string(runes[:width-1]) + "…"
	}

	padding := strings.Repeat(" ", width-len(runes))
	if align == AlignRight {
		return padding + s
	}
	return s + padding
}

// calculateColumnWidths determines each column's width: fixed widths are
// honored, the rest auto-size to their content, and everything is
// proportionally shrunk when the total exceeds maxWidth.
func calculateColumnWidths(cols []Column, rows [][]string, maxWidth, sepWidth int) []int {
	widths := make([]int, len(cols))
	for i, col := range cols {
		if col.Width > 0 {
			widths[i] = col.Width
			continue
		}
		w := len([]rune(col.Title))
		for _, row := range rows {
			if i < len(row) {
				if cellLen := len([]rune(row[i])); cellLen > w {
					w = cellLen
				}
			}
		}
		if w == 0 {
			w = 1
		}
		widths[i] = w
	}

	if maxWidth > 0 {
		totalSep := sepWidth * (len(cols) - 1)
		totalCol := 0
		for _, w := range widths {
			totalCol += w
		}
		if totalCol+totalSep > maxWidth {
			available := maxWidth - totalSep
			if available < len(cols) {
				available = len(cols)
			}
			for i, w := range widths {
				widths[i] = w * available / totalCol
				if widths[i] < 1 {
					widths[i] = 1
				}
			}
		}
	}

	return widths
}
