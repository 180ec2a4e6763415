package widgets

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// sparkBlocks are the eight block heights, lowest first.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineConfig controls how a run of values is drawn.
type SparklineConfig struct {
	// Values to draw, oldest first.
	Values []float64
	// Width in cells. Zero means one cell per value. Longer input keeps the
	// newest values; shorter input is left-padded.
	Width int
	// Min and Max fix the vertical scale. When equal, the scale fits the data.
	Min float64
	Max float64
	// Color of the blocks. Empty leaves them unstyled.
	Color lipgloss.Color
}

// RenderSparkline draws cfg.Values as a row of block characters.
func RenderSparkline(cfg SparklineConfig) string {
	data := cfg.Values
	if len(data) == 0 {
		return strings.Repeat(" ", max(cfg.Width, 0))
	}

	width := cfg.Width
	if width <= 0 {
		width = len(data)
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	lo, hi := cfg.Min, cfg.Max
	if lo == hi {
		lo, hi = bounds(data)
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(data)))
	for _, v := range data {
		sb.WriteRune(sparkBlock(v, lo, hi))
	}

	out := sb.String()
	if cfg.Color != "" {
		out = lipgloss.NewStyle().Foreground(cfg.Color).Render(out)
	}
	return out
}

// SeriesSparkline draws a channel's history in its chart colour. Percent
// series use a fixed 0..100 scale; the network series scales to its own
// range, anchored at zero.
func SeriesSparkline(s collectors.Series, width int) string {
	cfg := SparklineConfig{
		Values: s.Values,
		Width:  width,
		Color:  StyleFor(s.Channel).Color,
	}
	switch s.Unit {
	case collectors.UnitPercent:
		cfg.Min, cfg.Max = 0, 100
	default:
		_, hi := bounds(s.Values)
		if hi > 0 {
			cfg.Max = hi
		}
	}
	return RenderSparkline(cfg)
}

func sparkBlock(v, lo, hi float64) rune {
	if hi == lo {
		return sparkBlocks[len(sparkBlocks)/2]
	}
	n := (v - lo) / (hi - lo)
	n = math.Max(0, math.Min(1, n))
	return sparkBlocks[int(math.Round(n*float64(len(sparkBlocks)-1)))]
}

func bounds(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
