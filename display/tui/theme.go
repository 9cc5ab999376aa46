package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the process monitor theme.
const (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorSuccess   = lipgloss.Color("#22C55E") // Green
	colorWarning   = lipgloss.Color("#EAB308") // Yellow
	colorDanger    = lipgloss.Color("#EF4444") // Red
	colorMuted     = lipgloss.Color("#6B7280") // Gray
)

// Styles used throughout the TUI.
var (
	styleHeader      lipgloss.Style
	styleTitle       lipgloss.Style
	styleTableHeader lipgloss.Style
	styleRow         lipgloss.Style
	styleSelectedRow lipgloss.Style
	styleSystemRow   lipgloss.Style
	styleCritical    lipgloss.Style
	styleFooter      lipgloss.Style
	styleStatus      lipgloss.Style
	styleConfirm     lipgloss.Style
)

func init() {
	styleHeader = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(colorMuted)

	styleTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSecondary)

	styleTableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary)

	styleRow = lipgloss.NewStyle()

	styleSelectedRow = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPrimary)

	styleSystemRow = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleCritical = lipgloss.NewStyle().
		Foreground(colorDanger)

	styleFooter = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleStatus = lipgloss.NewStyle().
		Foreground(colorSuccess)

	styleConfirm = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorWarning)
}
