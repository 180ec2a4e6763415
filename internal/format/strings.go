package format

import "github.com/charmbracelet/x/ansi"

// Fit truncates s to at most width terminal cells, appending "…" when cut.
// Wide runes count as two cells.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}
