// Package text renders Snapshots as plain terminal text for one-shot and
// follow modes.
package text

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/display/widgets"
	"gitlab.com/tinyland/lab/host-pulse/internal/format"
)

// Options controls the report layout.
type Options struct {
	// Width is the terminal width used for the process table.
	Width int
	// SparklineWidth is the history column width.
	SparklineWidth int
}

const titleWidth = 22

// Report renders a multi-line summary: one row per channel with value,
// history and read state, followed by warnings and the process table.
func Report(snap *collectors.Snapshot, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.SparklineWidth <= 0 {
		opts.SparklineWidth = 30
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "host-pulse · %s · #%d · %s\n\n",
		snap.Source, snap.Seq, snap.TakenAt.Format("2006-01-02 15:04:05"))

	for _, ch := range collectors.SeriesChannels {
		series := snap.Series(ch)
		title := widgets.StyleFor(ch).Title
		value := format.Value(snap.Current.Get(ch), series.Unit)
		row := fmt.Sprintf("%-*s %10s  %s", titleWidth, title, value,
			widgets.SeriesSparkline(series, opts.SparklineWidth))
		if st, ok := snap.Status(ch); ok && st.State != collectors.ReadOK {
			row += "  " + widgets.RenderStatus(widgets.LevelFor(st.State), string(st.State))
		}
		sb.WriteString(row)
		sb.WriteByte('\n')
	}

	for _, w := range snap.Warnings {
		sb.WriteString("warning: ")
		sb.WriteString(w)
		sb.WriteByte('\n')
	}

	list := snap.Processes
	fmt.Fprintf(&sb, "\nProcesses (%d of %d)", len(list.Entries), list.Total)
	if list.Dropped > 0 {
		fmt.Fprintf(&sb, ", %d unreadable", list.Dropped)
	}
	sb.WriteByte('\n')
	sb.WriteString(widgets.RenderProcessTable(list, opts.Width))
	sb.WriteByte('\n')
	return sb.String()
}

// Line renders a one-line summary for follow mode, like
// "#12 15:04:05 cpu 30.0% mem 40.0% disk 62.5% net 0.25 MB".
// Failed channels are listed at the end.
func Line(snap *collectors.Snapshot) string {
	c := snap.Current
	line := fmt.Sprintf("#%d %s cpu %s mem %s disk %s net %s",
		snap.Seq, snap.TakenAt.Format("15:04:05"),
		format.Percent(c.CPU), format.Percent(c.Memory), format.Percent(c.Disk),
		format.Megabytes(c.Network))

	var failed []string
	for _, st := range snap.Channels {
		if st.State != collectors.ReadOK {
			failed = append(failed, string(st.Channel))
		}
	}
	if len(failed) > 0 {
		line += lipgloss.NewStyle().Faint(true).Render(" degraded: " + strings.Join(failed, ","))
	}
	if len(snap.Warnings) > 0 {
		line += " (" + strings.Join(snap.Warnings, "; ") + ")"
	}
	return line
}
