package collectors

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
)

// MockSource is a scriptable Source for tests and demo mode. Each hook is
// optional; when nil the source returns synthetic values that move smoothly
// over successive calls so charts look alive without touching the host.
type MockSource struct {
	SourceName string

	CPUFunc       func(ctx context.Context) (float64, error)
	MemoryFunc    func(ctx context.Context) (float64, error)
	DiskFunc      func(ctx context.Context, path string) (float64, error)
	NetworkFunc   func(ctx context.Context) (NetCounters, error)
	ProcessesFunc func(ctx context.Context) ([]ProcessInfo, error)

	calls atomic.Int64

	mu  sync.Mutex
	net NetCounters
}

// NewMockSource returns a MockSource producing synthetic readings.
func NewMockSource() *MockSource {
	return &MockSource{SourceName: "mock"}
}

// Name implements Source.
func (m *MockSource) Name() string {
	if m.SourceName == "" {
		return "mock"
	}
	return m.SourceName
}

// Calls returns how many reads have been served across all channels.
func (m *MockSource) Calls() int64 {
	return m.calls.Load()
}

func (m *MockSource) wave(period, base, amp float64) float64 {
	n := float64(m.calls.Load())
	return base + amp*math.Sin(2*math.Pi*n/period)
}

// CPUPercent implements Source.
func (m *MockSource) CPUPercent(ctx context.Context) (float64, error) {
	defer m.calls.Add(1)
	if m.CPUFunc != nil {
		return m.CPUFunc(ctx)
	}
	return m.wave(40, 35, 25), nil
}

// MemoryPercent implements Source.
func (m *MockSource) MemoryPercent(ctx context.Context) (float64, error) {
	defer m.calls.Add(1)
	if m.MemoryFunc != nil {
		return m.MemoryFunc(ctx)
	}
	return m.wave(120, 55, 8), nil
}

// DiskPercent implements Source.
func (m *MockSource) DiskPercent(ctx context.Context, path string) (float64, error) {
	defer m.calls.Add(1)
	if m.DiskFunc != nil {
		return m.DiskFunc(ctx, path)
	}
	return 62.5, nil
}

// NetworkCounters implements Source.
func (m *MockSource) NetworkCounters(ctx context.Context) (NetCounters, error) {
	defer m.calls.Add(1)
	if m.NetworkFunc != nil {
		return m.NetworkFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	step := uint64(m.wave(30, 2_000_000, 1_500_000))
	m.net.BytesRecv += step
	m.net.BytesSent += step / 4
	return m.net, nil
}

// ListProcesses implements Source.
func (m *MockSource) ListProcesses(ctx context.Context) ([]ProcessInfo, error) {
	defer m.calls.Add(1)
	if m.ProcessesFunc != nil {
		return m.ProcessesFunc(ctx)
	}
	names := []string{
		"init", "sshd", "postgres", "nginx", "node", "go", "containerd",
		"kubelet", "prometheus", "grafana", "redis-server", "dockerd",
		"systemd-journald", "chronyd", "bash", "tmux", "vim", "rsyslogd",
		"cron", "dbus-daemon", "NetworkManager", "pipewire", "Xorg", "firefox",
		"code",
	}
	procs := make([]ProcessInfo, len(names))
	for i, name := range names {
		procs[i] = ProcessInfo{
			PID:           int32(i + 1),
			Name:          name,
			CPUPercent:    math.Abs(m.wave(float64(7+i), float64(len(names)-i)/2, 3)),
			MemoryPercent: float64(i%7) * 1.5,
		}
	}
	return procs, nil
}

var _ Source = (*MockSource)(nil)
