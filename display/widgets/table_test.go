package widgets

import (
	"strings"
	"testing"
)

func TestRenderTableEmpty(t *testing.T) {
	if got := RenderTable(TableConfig{}); got != "" {
		t.Errorf("empty config rendered %q, want empty string", got)
	}
}

func TestRenderTableBasic(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Columns = []Column{
		{Title: "PID", Align: AlignRight},
		{Title: "Name"},
		{Title: "CPU%", Align: AlignRight},
	}
	cfg.Rows = [][]string{
		{"101", "Safari", "12.5"},
		{"7", "launchd", "0.1"},
	}

	out := RenderTable(cfg)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("rendered %d lines, want header + 2 rows", len(lines))
	}
	if !strings.Contains(lines[0], "PID") || !strings.Contains(lines[0], "Name") {
		t.Errorf("header missing titles: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Safari") {
		t.Errorf("row 1 = %q, want Safari", lines[1])
	}
	// Right-aligned PID column pads short values on the left.
	if !strings.HasPrefix(lines[2], "  7") {
		t.Errorf("right-aligned PID not padded: %q", lines[2])
	}
}

func TestRenderTableTruncatesWideCells(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.Columns = []Column{{Title: "Name", Width: 6}}
	cfg.Rows = [][]string{{"a very long process name"}}

	out := RenderTable(cfg)
	lines := strings.Split(out, "\n")
	cell := lines[len(lines)-1]
	if !strings.HasSuffix(cell, "…") {
		t.Errorf("wide cell not truncated with ellipsis: %q", cell)
	}
	if len([]rune(cell)) != 6 {
		t.Errorf("cell width = %d, want 6", len([]rune(cell)))
	}
}

func TestRenderTableMaxWidthShrinks(t *testing.T) {
	cfg := DefaultTableConfig()
	cfg.ShowHeader = false
	cfg.Columns = []Column{{Title: "A"}, {Title: "B"}}
	cfg.Rows = [][]string{{strings.Repeat("x", 30), strings.Repeat("y", 30)}}
	cfg.MaxWidth = 20

	out := RenderTable(cfg)
	if got := len([]rune(out)); got > 20 {
		t.Errorf("rendered width = %d, want <= 20", got)
	}
}
