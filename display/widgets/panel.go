package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/internal/format"
)

// RenderChannelPanel renders one series channel as a titled block: the
// current value and read state, the history sparkline, and for percent
// channels a gauge.
func RenderChannelPanel(snap *collectors.Snapshot, ch collectors.Channel, width int) string {
	style := StyleFor(ch)
	series := snap.Series(ch)
	width = max(width, 10)

	title := lipgloss.NewStyle().Bold(true).Foreground(style.Color).Render(style.Title)
	value := format.Value(snap.Current.Get(ch), series.Unit)
	if series.Unit == collectors.UnitMegabytes {
		value += " / " + format.Duration(snap.Interval)
	}
	header := title + "  " + value
	if st, ok := snap.Status(ch); ok && st.State != collectors.ReadOK {
		header += "  " + RenderStatus(LevelFor(st.State), string(st.State))
	}

	lines := []string{header, SeriesSparkline(series, width)}
	if series.Unit == collectors.UnitPercent {
		g := DefaultGaugeConfig()
		g.Width = max(width-5, 5)
		g.Percent = snap.Current.Get(ch)
		lines = append(lines, RenderGauge(g))
	}
	return strings.Join(lines, "\n")
}
