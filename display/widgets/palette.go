// Package widgets renders the building blocks of the dashboard: per-channel
// sparklines and gauges, the process table and read-status badges.
package widgets

import (
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// Chart palette. Series colours match the PNG chart so both adapters read
// the same.
const (
	ColorBackground = lipgloss.Color("#1e1e1e")
	ColorCPU        = lipgloss.Color("#00FF00")
	ColorMemory     = lipgloss.Color("#FF4500")
	ColorDisk       = lipgloss.Color("#1E90FF")
	ColorNetwork    = lipgloss.Color("#8A2BE2")

	colorOK       = lipgloss.Color("#22C55E")
	colorWarning  = lipgloss.Color("#EAB308")
	colorDanger   = lipgloss.Color("#EF4444")
	colorMuted    = lipgloss.Color("#6B7280")
	colorTableAlt = lipgloss.Color("#2A2A2A")
)

// ChannelStyle is the title and colour used for one series channel.
type ChannelStyle struct {
	Title string
	Color lipgloss.Color
}

var channelStyles = map[collectors.Channel]ChannelStyle{
	collectors.ChannelCPU:     {Title: "CPU Usage (%)", Color: ColorCPU},
	collectors.ChannelMemory:  {Title: "Memory Usage (%)", Color: ColorMemory},
	collectors.ChannelDisk:    {Title: "Disk Usage (%)", Color: ColorDisk},
	collectors.ChannelNetwork: {Title: "Network Activity (MB)", Color: ColorNetwork},
}

// StyleFor returns the chart style for ch. Unknown channels get their own
// name as title and the muted colour.
func StyleFor(ch collectors.Channel) ChannelStyle {
	if st, ok := channelStyles[ch]; ok {
		return st
	}
	return ChannelStyle{Title: string(ch), Color: colorMuted}
}
