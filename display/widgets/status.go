package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// StatusLevel is the severity shown by a badge.
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusUnknown
)

var statusIcons = map[StatusLevel]string{
	StatusOK:       "●",
	StatusWarning:  "●",
	StatusCritical: "●",
	StatusUnknown:  "○",
}

var statusColors = map[StatusLevel]lipgloss.Color{
	StatusOK:       colorOK,
	StatusWarning:  colorWarning,
	StatusCritical: colorDanger,
	StatusUnknown:  colorMuted,
}

// LevelFor maps a read state to a badge level. A substituted value is still
// a real measurement, just an old one; a sentinel is not a measurement.
func LevelFor(state collectors.ReadState) StatusLevel {
	switch state {
	case collectors.ReadOK:
		return StatusOK
	case collectors.ReadSubstituted:
		return StatusWarning
	case collectors.ReadSentinel:
		return StatusCritical
	}
	return StatusUnknown
}

// RenderStatus renders a coloured dot followed by text.
func RenderStatus(level StatusLevel, text string) string {
	icon := lipgloss.NewStyle().Foreground(statusColors[level]).Render(statusIcons[level])
	if text == "" {
		return icon
	}
	return icon + " " + text
}

// ChannelBadge renders the read status of ch in snap. A channel missing from
// the snapshot renders as unknown.
func ChannelBadge(snap *collectors.Snapshot, ch collectors.Channel) string {
	st, ok := snap.Status(ch)
	if !ok {
		return RenderStatus(StatusUnknown, string(ch))
	}
	return RenderStatus(LevelFor(st.State), string(ch))
}

// RenderStatusBar renders one badge per sampled channel followed by any
// cycle warnings.
func RenderStatusBar(snap *collectors.Snapshot) string {
	if snap == nil {
		return RenderStatus(StatusUnknown, "waiting for first sample")
	}
	parts := make([]string, 0, len(snap.Channels)+1)
	for _, st := range snap.Channels {
		parts = append(parts, ChannelBadge(snap, st.Channel))
	}
	if len(snap.Warnings) > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorWarning).
			Render("⚠ "+strings.Join(snap.Warnings, "; ")))
	}
	return strings.Join(parts, "  ")
}
