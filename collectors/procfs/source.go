//go:build linux

// Package procfs implements collectors.Source by parsing /proc directly. It
// avoids gopsutil's per-process file fan-out and is the lighter choice on
// Linux hosts with many processes.
package procfs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sys/unix"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

const (
	// sourceName is the unique identifier for this source.
	sourceName = "procfs"

	// clockTicks is USER_HZ. It is 100 on every mainstream Linux build and
	// cannot be read without cgo.
	clockTicks = 100

	defaultTickTTL = 30 * time.Second
)

// Options configures a Source.
type Options struct {
	// TickTTL bounds how long a process's previous CPU ticks are remembered.
	TickTTL time.Duration
	Logger  *slog.Logger
}

// cpuTimes is one aggregate /proc/stat cpu line.
type cpuTimes struct {
	idle  uint64
	total uint64
}

// procTicks is the remembered CPU time of one process.
type procTicks struct {
	ticks     uint64
	startTime uint64
	at        time.Time
}

// Source reads host metrics from procfs.
type Source struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	prevCPU cpuTimes
	ticks   *ttlcache.Cache[int32, procTicks]

	// Overridable for testing.
	open     func(name string) (io.ReadCloser, error)
	listPIDs func() ([]int32, error)
	statfs   func(path string, buf *unix.Statfs_t) error
	pageSize int
}

// New creates a procfs-backed source.
func New(opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ttl := opts.TickTTL
	if ttl <= 0 {
		ttl = defaultTickTTL
	}
	return &Source{
		logger: logger,
		now:    time.Now,
		ticks: ttlcache.New[int32, procTicks](
			ttlcache.WithTTL[int32, procTicks](ttl),
		),
		open: func(name string) (io.ReadCloser, error) {
			return os.Open("/proc/" + name)
		},
		listPIDs: listProcPIDs,
		statfs:   unix.Statfs,
		pageSize: os.Getpagesize(),
	}
}

// Name implements collectors.Source.
func (s *Source) Name() string { return sourceName }

// CPUPercent implements collectors.Source. The first call seeds the counters
// and returns 0.
func (s *Source) CPUPercent(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	cur, err := s.readCPUTimes()
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	prev := s.prevCPU
	s.prevCPU = cur
	s.mu.Unlock()

	if prev.total == 0 || cur.total <= prev.total {
		return 0, nil
	}
	deltaTotal := cur.total - prev.total
	var deltaIdle uint64
	if cur.idle > prev.idle {
		deltaIdle = cur.idle - prev.idle
	}
	return clampPercent((1.0 - float64(deltaIdle)/float64(deltaTotal)) * 100.0), nil
}

// MemoryPercent implements collectors.Source.
// Usage = (MemTotal - MemAvailable) / MemTotal * 100
func (s *Source) MemoryPercent(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	total, avail, err := s.readMemInfo()
	if err != nil {
		return 0, err
	}
	if avail > total {
		avail = total
	}
	return clampPercent(float64(total-avail) / float64(total) * 100.0), nil
}

// DiskPercent implements collectors.Source. Used share is computed against
// the space available to unprivileged users, matching df.
func (s *Source) DiskPercent(ctx context.Context, path string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var st unix.Statfs_t
	if err := s.statfs(path, &st); err != nil {
		return 0, errors.WrapIff(err, "statfs %s", path)
	}
	if st.Blocks == 0 {
		return 0, errors.Errorf("statfs %s: filesystem reports zero blocks", path)
	}
	used := st.Blocks - st.Bfree
	total := used + st.Bavail
	if total == 0 {
		return 0, nil
	}
	return clampPercent(float64(used) / float64(total) * 100.0), nil
}

// NetworkCounters implements collectors.Source. Counters are summed over all
// interfaces except loopback.
func (s *Source) NetworkCounters(ctx context.Context) (collectors.NetCounters, error) {
	if err := ctx.Err(); err != nil {
		return collectors.NetCounters{}, err
	}
	return s.readNetDev()
}

// ListProcesses implements collectors.Source.
func (s *Source) ListProcesses(ctx context.Context) ([]collectors.ProcessInfo, error) {
	pids, err := s.listPIDs()
	if err != nil {
		return nil, errors.Wrap(err, "list pids")
	}
	memTotal, _, err := s.readMemInfo()
	if err != nil {
		return nil, err
	}
	memTotalBytes := float64(memTotal) * 1024
	now := s.now()
	s.ticks.DeleteExpired()

	out := make([]collectors.ProcessInfo, 0, len(pids))
	vanished := 0
	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := s.readPIDStat(pid)
		if err != nil {
			if errors.Is(err, collectors.ErrEnumerationRace) {
				s.ticks.Delete(pid)
			}
			vanished++
			continue
		}

		info := collectors.ProcessInfo{
			PID:           pid,
			Name:          st.comm,
			MemoryPercent: float64(st.rssPages) * float64(s.pageSize) / memTotalBytes * 100.0,
		}
		cur := procTicks{ticks: st.utime + st.stime, startTime: st.startTime, at: now}
		if item := s.ticks.Get(pid); item != nil {
			prev := item.Value()
			elapsed := cur.at.Sub(prev.at).Seconds()
			if prev.startTime == cur.startTime && cur.ticks >= prev.ticks && elapsed > 0 {
				info.CPUPercent = float64(cur.ticks-prev.ticks) / clockTicks / elapsed * 100.0
			}
		}
		s.ticks.Set(pid, cur, ttlcache.DefaultTTL)
		out = append(out, info)
	}

	s.logger.Debug("processes listed", "count", len(out), "vanished", vanished)
	return out, nil
}

// listProcPIDs returns the numeric entries of /proc.
func listProcPIDs() ([]int32, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	pids := make([]int32, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.ParseInt(e.Name(), 10, 32)
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, int32(pid))
	}
	return pids, nil
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
