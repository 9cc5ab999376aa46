// Package widgets provides small self-contained rendering helpers shared
// by the live TUI and the one-shot table output.
package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparkBlocks contains 8 unicode block characters for sparkline rendering,
// ordered from lowest to highest.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig controls the appearance of a sparkline chart.
type SparklineConfig struct {
	// Data points to render, oldest first.
	Data []float64
	// Width is the number of characters to render. If 0, uses len(Data).
	Width int
	// Max is the value mapped to a full block. Usage series use a fixed
	// scale (100 for percentages, 1 for pressure ratios) so charts do not
	// rescale between refreshes. If 0, auto-scales to the data maximum.
	Max float64
	// Color is the lipgloss color for the sparkline characters.
	Color lipgloss.Color
}

// RenderSparkline renders a unicode sparkline chart. Series shorter than
// Width are left-padded with spaces so the newest sample stays pinned to
// the right edge.
func RenderSparkline(cfg SparklineConfig) string {
	if len(cfg.Data) == 0 {
		return ""
	}

	data := cfg.Data
	width := cfg.Width
	if width <= 0 {
		width = len(data)
	}
	if width < len(data) {
		data = data[len(data)-width:]
	}

	maxVal := cfg.Max
	if maxVal <= 0 {
		for _, v := range data {
			if v > maxVal {
				maxVal = v
			}
		}
	}

	runes := make([]rune, 0, len(data))
	for _, v := range data {
		if maxVal <= 0 || math.IsNaN(v) {
			runes = append(runes, sparkBlocks[0])
			continue
		}
		normalized := math.Max(0, math.Min(1, v/maxVal))
		idx := int(normalized * float64(len(sparkBlocks)-1))
		runes = append(runes, sparkBlocks[idx])
	}

	spark := string(runes)
	if width > len(data) {
		spark = strings.Repeat(" ", width-len(data)) + spark
	}

	if cfg.Color != "" {
		spark = lipgloss.NewStyle().Foreground(cfg.Color).Render(spark)
	}
	return spark
}
