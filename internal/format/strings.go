package format

import "fmt"

// TruncateRunes truncates a string to maxLen runes (Unicode-aware).
// Returns the full string if it's shorter than maxLen runes.
func TruncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

// TruncateWithEllipsis truncates a string to maxWidth characters, appending "..."
// if the string exceeds the limit. If maxWidth is less than 4, the string
// is hard-truncated without an ellipsis suffix.
func TruncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxWidth {
		return s
	}

	if maxWidth < 4 {
		return string(runes[:maxWidth])
	}

	return string(runes[:maxWidth-3]) + "..."
}

// FormatMemory renders a megabyte figure as a compact human-readable string.
// Returns strings like "512 MB", "1.2 GB", or "96 KB" for sub-megabyte values.
func FormatMemory(mb float64) string {
	switch {
	case mb >= 1024:
		return fmt.Sprintf("%.1f GB", mb/1024)
	case mb >= 1:
		return fmt.Sprintf("%.0f MB", mb)
	case mb > 0:
		return fmt.Sprintf("%.0f KB", mb*1024)
	default:
		return "0 MB"
	}
}

// FormatPercent renders a 0-100 percentage with one decimal place.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}
