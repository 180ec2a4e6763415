// Package psutil implements collectors.Source on top of gopsutil, which
// covers Linux, macOS, the BSDs and Windows.
package psutil

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"emperror.dev/errors"
	"github.com/jellydator/ttlcache/v3"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	gonet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

const (
	// sourceName is the unique identifier for this source.
	sourceName = "psutil"

	// defaultHandleTTL is how long an unseen process handle is kept. Handles
	// carry the previous CPU times, so they must outlive one sampling interval.
	defaultHandleTTL = 30 * time.Second
)

// Options configures a Source.
type Options struct {
	// HandleTTL bounds how long a process handle survives without being seen.
	HandleTTL time.Duration
	Logger    *slog.Logger
}

// Source reads host metrics through gopsutil.
type Source struct {
	logger  *slog.Logger
	handles *ttlcache.Cache[int32, *process.Process]

	// Overridable for testing.
	pids       func(ctx context.Context) ([]int32, error)
	newProcess func(ctx context.Context, pid int32) (proc, error)
}

// proc is the subset of *process.Process the source reads.
type proc interface {
	NameWithContext(ctx context.Context) (string, error)
	PercentWithContext(ctx context.Context, interval time.Duration) (float64, error)
	MemoryPercentWithContext(ctx context.Context) (float32, error)
}

// New creates a gopsutil-backed source.
func New(opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ttl := opts.HandleTTL
	if ttl <= 0 {
		ttl = defaultHandleTTL
	}
	return &Source{
		logger: logger,
		handles: ttlcache.New[int32, *process.Process](
			ttlcache.WithTTL[int32, *process.Process](ttl),
		),
		pids: process.PidsWithContext,
	}
}

// Name implements collectors.Source.
func (s *Source) Name() string { return sourceName }

// CPUPercent implements collectors.Source. gopsutil keeps the previous CPU
// times internally, so the first call after start reports usage since boot.
func (s *Source) CPUPercent(ctx context.Context) (float64, error) {
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, errors.Wrap(err, "cpu percent")
	}
	if len(pcts) == 0 {
		return 0, errors.New("cpu percent: no data")
	}
	return clampPercent(pcts[0]), nil
}

// MemoryPercent implements collectors.Source.
func (s *Source) MemoryPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "virtual memory")
	}
	return clampPercent(vm.UsedPercent), nil
}

// DiskPercent implements collectors.Source.
func (s *Source) DiskPercent(ctx context.Context, path string) (float64, error) {
	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, errors.WrapIff(err, "disk usage %s", path)
	}
	return clampPercent(u.UsedPercent), nil
}

// NetworkCounters implements collectors.Source.
func (s *Source) NetworkCounters(ctx context.Context) (collectors.NetCounters, error) {
	stats, err := gonet.IOCountersWithContext(ctx, false)
	if err != nil {
		return collectors.NetCounters{}, errors.Wrap(err, "net io counters")
	}
	if len(stats) == 0 {
		return collectors.NetCounters{}, errors.New("net io counters: no interfaces")
	}
	return collectors.NetCounters{
		BytesSent: stats[0].BytesSent,
		BytesRecv: stats[0].BytesRecv,
	}, nil
}

// ListProcesses implements collectors.Source. Process handles are reused
// across calls so per-process CPU is measured over the sampling interval; a
// process seen for the first time reports 0.
func (s *Source) ListProcesses(ctx context.Context) ([]collectors.ProcessInfo, error) {
	pids, err := s.pids(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list pids")
	}
	s.handles.DeleteExpired()

	out := make([]collectors.ProcessInfo, 0, len(pids))
	vanished := 0
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.handle(ctx, pid)
		if err != nil {
			vanished++
			continue
		}
		info, err := readProcess(ctx, pid, p)
		if err != nil {
			if errors.Is(err, collectors.ErrEnumerationRace) {
				s.handles.Delete(pid)
				vanished++
			}
			continue
		}
		out = append(out, info)
	}

	s.logger.Debug("processes listed", "count", len(out), "vanished", vanished)
	return out, nil
}

func (s *Source) handle(ctx context.Context, pid int32) (proc, error) {
	if s.newProcess != nil {
		return s.newProcess(ctx, pid)
	}
	if item := s.handles.Get(pid); item != nil {
		return item.Value(), nil
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil, errors.WrapIf(err, "new process")
	}
	s.handles.Set(pid, p, ttlcache.DefaultTTL)
	return p, nil
}

func readProcess(ctx context.Context, pid int32, p proc) (collectors.ProcessInfo, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return collectors.ProcessInfo{}, classify(err)
	}
	cpuPct, err := p.PercentWithContext(ctx, 0)
	if err != nil {
		return collectors.ProcessInfo{}, classify(err)
	}
	memPct, err := p.MemoryPercentWithContext(ctx)
	if err != nil {
		return collectors.ProcessInfo{}, classify(err)
	}
	return collectors.ProcessInfo{
		PID:           pid,
		Name:          name,
		CPUPercent:    cpuPct,
		MemoryPercent: float64(memPct),
	}, nil
}

// classify maps the errors of a process that exited mid-scan to ErrEnumerationRace.
func classify(err error) error {
	if errors.Is(err, process.ErrorProcessNotRunning) || errors.Is(err, fs.ErrNotExist) {
		return errors.WithStack(collectors.ErrEnumerationRace)
	}
	return err
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

var _ collectors.Source = (*Source)(nil)
