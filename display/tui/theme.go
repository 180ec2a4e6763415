package tui

import (
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/host-pulse/display/widgets"
)

const (
	colorPrimary = lipgloss.Color("#00FF00")
	colorText    = lipgloss.Color("#E5E5E5")
	colorMuted   = lipgloss.Color("#6B7280")
	colorWarning = lipgloss.Color("#EAB308")
	colorDanger  = lipgloss.Color("#EF4444")
	colorLink    = lipgloss.Color("#1E90FF")
)

var (
	styleApp     lipgloss.Style
	styleHeader  lipgloss.Style
	styleTitle   lipgloss.Style
	styleMeta    lipgloss.Style
	styleSection lipgloss.Style
	styleMore    lipgloss.Style
	styleStale   lipgloss.Style
	styleError   lipgloss.Style
	styleFooter  lipgloss.Style
)

func init() {
	styleApp = lipgloss.NewStyle().
		Background(widgets.ColorBackground).
		Foreground(colorText)

	styleHeader = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(colorMuted)

	styleTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary)

	styleMeta = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleSection = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorText)

	styleMore = lipgloss.NewStyle().
		Underline(true).
		Foreground(colorLink)

	styleStale = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
		Foreground(colorDanger)

	styleFooter = lipgloss.NewStyle().
		Foreground(colorMuted).
		MarginTop(1)
}
