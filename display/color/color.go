// Package color decides whether plain-text output may carry ANSI color.
//
// It implements the NO_COLOR convention (https://no-color.org/) and pipe or
// redirect detection. When color is disabled, lipgloss is switched to the
// Ascii profile so every styled render produces plain text.
package color

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ShouldDisableColor reports whether output written to f should be plain:
// NO_COLOR is set (to any value), or f is not a terminal.
func ShouldDisableColor(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	if f == nil {
		return true
	}
	fd := f.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

// Apply configures the global lipgloss renderer for output to f and reports
// whether color is enabled.
func Apply(f *os.File) bool {
	if ShouldDisableColor(f) {
		ForceDisable()
		return false
	}
	return true
}

// ForceDisable unconditionally switches lipgloss to the Ascii profile.
func ForceDisable() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
