package widgets

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

func testSnapshot() *collectors.Snapshot {
	return &collectors.Snapshot{
		Seq:      3,
		TakenAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Interval: 2 * time.Second,
		Source:   "mock",
		Current:  collectors.Readings{CPU: 30, Memory: 40, Disk: 62.5, Network: 1.5},
		CPU:      collectors.Series{Channel: collectors.ChannelCPU, Unit: collectors.UnitPercent, Capacity: 30, Values: []float64{10, 20, 30}},
		Memory:   collectors.Series{Channel: collectors.ChannelMemory, Unit: collectors.UnitPercent, Capacity: 30, Values: []float64{20, 30, 40}},
		Disk:     collectors.Series{Channel: collectors.ChannelDisk, Unit: collectors.UnitPercent, Capacity: 30, Values: []float64{62.5, 62.5, 62.5}},
		Network:  collectors.Series{Channel: collectors.ChannelNetwork, Unit: collectors.UnitMegabytes, Capacity: 30, Values: []float64{0, 0.5, 1.5}},
		Channels: []collectors.ChannelStatus{
			{Channel: collectors.ChannelCPU, State: collectors.ReadOK},
			{Channel: collectors.ChannelMemory, State: collectors.ReadOK},
			{Channel: collectors.ChannelDisk, State: collectors.ReadSubstituted, Error: "disk: transient read failure: boom"},
			{Channel: collectors.ChannelNetwork, State: collectors.ReadOK},
			{Channel: collectors.ChannelProcesses, State: collectors.ReadSentinel},
		},
	}
}

func TestStyleFor(t *testing.T) {
	tests := []struct {
		ch    collectors.Channel
		title string
		color string
	}{
		{collectors.ChannelCPU, "CPU Usage (%)", "#00FF00"},
		{collectors.ChannelMemory, "Memory Usage (%)", "#FF4500"},
		{collectors.ChannelDisk, "Disk Usage (%)", "#1E90FF"},
		{collectors.ChannelNetwork, "Network Activity (MB)", "#8A2BE2"},
		{collectors.Channel("gpu"), "gpu", string(colorMuted)},
	}
	for _, tt := range tests {
		t.Run(string(tt.ch), func(t *testing.T) {
			st := StyleFor(tt.ch)
			if st.Title != tt.title {
				t.Errorf("title = %q, want %q", st.Title, tt.title)
			}
			if string(st.Color) != tt.color {
				t.Errorf("color = %q, want %q", st.Color, tt.color)
			}
		})
	}
}

func TestRenderSparkline(t *testing.T) {
	tests := []struct {
		name string
		cfg  SparklineConfig
		want string
	}{
		{"fixed scale", SparklineConfig{Values: []float64{0, 50, 100}, Min: 0, Max: 100}, "▁▅█"},
		{"auto scale", SparklineConfig{Values: []float64{10, 20}}, "▁█"},
		{"flat data uses mid block", SparklineConfig{Values: []float64{5, 5, 5}}, "▅▅▅"},
		{"left padded", SparklineConfig{Values: []float64{0, 100}, Width: 4, Max: 100}, "  ▁█"},
		{"keeps newest", SparklineConfig{Values: []float64{100, 0, 100}, Width: 2, Max: 100}, "▁█"},
		{"clamps out of range", SparklineConfig{Values: []float64{-5, 150}, Max: 100}, "▁█"},
		{"empty renders blank width", SparklineConfig{Width: 3}, "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ansi.Strip(RenderSparkline(tt.cfg))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSeriesSparkline(t *testing.T) {
	snap := testSnapshot()

	// Percent series scale against 0..100, so 10..30 stays in the low blocks.
	cpu := []rune(ansi.Strip(SeriesSparkline(snap.CPU, 3)))
	if len(cpu) != 3 {
		t.Fatalf("expected 3 cells, got %d", len(cpu))
	}
	for _, r := range cpu {
		if r > '▃' {
			t.Errorf("percent sparkline rune %c rises above the fixed scale", r)
		}
	}

	// Network scales to its own peak, anchored at zero.
	net := ansi.Strip(SeriesSparkline(snap.Network, 3))
	if net != "▁▃█" {
		t.Errorf("network sparkline = %q, want %q", net, "▁▃█")
	}
}

func TestRenderGauge(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		filled  int
		text    string
	}{
		{"half", 50, 10, " 50%"},
		{"zero", 0, 0, "  0%"},
		{"full", 100, 20, "100%"},
		{"clamped high", 150, 20, "100%"},
		{"clamped low", -20, 0, "  0%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGaugeConfig()
			cfg.Percent = tt.percent
			got := ansi.Strip(RenderGauge(cfg))

			if n := strings.Count(got, "█"); n != tt.filled {
				t.Errorf("filled = %d, want %d", n, tt.filled)
			}
			if n := strings.Count(got, "░"); n != 20-tt.filled {
				t.Errorf("empty = %d, want %d", n, 20-tt.filled)
			}
			if !strings.HasSuffix(got, tt.text) {
				t.Errorf("expected suffix %q in %q", tt.text, got)
			}
		})
	}
}

func TestGaugeColor(t *testing.T) {
	if c := gaugeColor(50, 70, 90); c != colorOK {
		t.Errorf("50%% should be ok, got %s", c)
	}
	if c := gaugeColor(75, 70, 90); c != colorWarning {
		t.Errorf("75%% should warn, got %s", c)
	}
	if c := gaugeColor(95, 70, 90); c != colorDanger {
		t.Errorf("95%% should be danger, got %s", c)
	}
}

func TestRenderProcessTable(t *testing.T) {
	list := collectors.ProcessList{
		Entries: []collectors.ProcessInfo{
			{PID: 4242, Name: "systemd-journald", CPUPercent: 12.34, MemoryPercent: 1.5},
			{PID: 7, Name: "init", CPUPercent: 0.5, MemoryPercent: 0.1},
		},
		Total: 2,
	}

	out := ansi.Strip(RenderProcessTable(list, 40))
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines:\n%s", len(lines), out)
	}
	for i, line := range lines {
		if w := ansi.StringWidth(line); w != 40 {
			t.Errorf("line %d is %d cells wide, want 40: %q", i, w, line)
		}
	}
	if !strings.Contains(lines[0], "NAME") {
		t.Errorf("header missing NAME: %q", lines[0])
	}
	if !strings.Contains(lines[1], "systemd-journa…") || !strings.Contains(lines[1], "12.3") {
		t.Errorf("unexpected first row: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "      7") {
		t.Errorf("PID should be right aligned: %q", lines[2])
	}
}

func TestRenderProcessTable_Empty(t *testing.T) {
	out := ansi.Strip(RenderProcessTable(collectors.ProcessList{}, 40))
	if out != "no process data" {
		t.Errorf("got %q", out)
	}
}

func TestRenderTable_NoColumns(t *testing.T) {
	if out := RenderTable(TableConfig{}); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestLevelFor(t *testing.T) {
	tests := map[collectors.ReadState]StatusLevel{
		collectors.ReadOK:          StatusOK,
		collectors.ReadSubstituted: StatusWarning,
		collectors.ReadSentinel:    StatusCritical,
		"bogus":                    StatusUnknown,
	}
	for state, want := range tests {
		if got := LevelFor(state); got != want {
			t.Errorf("LevelFor(%q) = %d, want %d", state, got, want)
		}
	}
}

func TestRenderStatusBar(t *testing.T) {
	if out := ansi.Strip(RenderStatusBar(nil)); !strings.Contains(out, "waiting") {
		t.Errorf("nil snapshot should render waiting text, got %q", out)
	}

	snap := testSnapshot()
	snap.Warnings = []string{"network counter reset"}
	out := ansi.Strip(RenderStatusBar(snap))
	for _, want := range []string{"● cpu", "● disk", "● processes", "⚠ network counter reset"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}
}

func TestChannelBadge_Unknown(t *testing.T) {
	snap := &collectors.Snapshot{}
	if out := ansi.Strip(ChannelBadge(snap, collectors.ChannelCPU)); out != "○ cpu" {
		t.Errorf("got %q", out)
	}
}

func TestRenderChannelPanel(t *testing.T) {
	snap := testSnapshot()

	cpu := ansi.Strip(RenderChannelPanel(snap, collectors.ChannelCPU, 30))
	lines := strings.Split(cpu, "\n")
	if len(lines) != 3 {
		t.Fatalf("percent panel should have title, sparkline and gauge, got:\n%s", cpu)
	}
	if !strings.HasPrefix(lines[0], "CPU Usage (%)  30.0%") {
		t.Errorf("unexpected title line %q", lines[0])
	}

	disk := ansi.Strip(RenderChannelPanel(snap, collectors.ChannelDisk, 30))
	if !strings.Contains(disk, "substituted") {
		t.Errorf("degraded channel should show its read state: %q", disk)
	}

	net := ansi.Strip(RenderChannelPanel(snap, collectors.ChannelNetwork, 30))
	if got := strings.Count(net, "\n"); got != 1 {
		t.Errorf("network panel has no gauge, expected 2 lines, got:\n%s", net)
	}
	if !strings.Contains(net, "1.50 MB / 2s") {
		t.Errorf("network value should be per interval: %q", net)
	}
}
