package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// GaugeConfig controls a horizontal percentage bar.
type GaugeConfig struct {
	Width       int
	Percent     float64
	Label       string
	ShowPercent bool
	// Warning and Danger are the thresholds at which the bar turns yellow
	// and red.
	Warning float64
	Danger  float64
}

// DefaultGaugeConfig returns a 20-cell gauge with 70/90 thresholds.
func DefaultGaugeConfig() GaugeConfig {
	return GaugeConfig{
		Width:       20,
		ShowPercent: true,
		Warning:     70,
		Danger:      90,
	}
}

func gaugeColor(percent, warning, danger float64) lipgloss.Color {
	switch {
	case danger > 0 && percent >= danger:
		return colorDanger
	case warning > 0 && percent >= warning:
		return colorWarning
	}
	return colorOK
}

// RenderGauge renders "[Label] ████░░░░ 42%". Percent is clamped to 0..100.
func RenderGauge(cfg GaugeConfig) string {
	percent := math.Max(0, math.Min(100, cfg.Percent))
	if math.IsNaN(cfg.Percent) {
		percent = 0
	}
	width := cfg.Width
	if width <= 0 {
		width = 20
	}

	filled := int(math.Round(percent / 100 * float64(width)))
	bar := lipgloss.NewStyle().
		Foreground(gaugeColor(percent, cfg.Warning, cfg.Danger)).
		Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(colorMuted).Render(strings.Repeat("░", width-filled))

	var sb strings.Builder
	if cfg.Label != "" {
		sb.WriteString(cfg.Label)
		sb.WriteByte(' ')
	}
	sb.WriteString(bar)
	if cfg.ShowPercent {
		fmt.Fprintf(&sb, " %3.0f%%", percent)
	}
	return sb.String()
}
