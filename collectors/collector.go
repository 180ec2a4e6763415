// Package collectors defines the boundary between host-pulse and the
// operating system: the Source interface that reads instantaneous host
// metrics, the fixed-shape records it returns, and the Snapshot type handed
// to presentation adapters.
package collectors

import (
	"context"
	"sort"
)

// Source reads instantaneous OS-level values. Implementations validate what
// they read so that the sampler never sees malformed records: percentages are
// in [0, 100] and process entries carry a positive PID.
type Source interface {
	// Name returns the source's unique identifier (e.g., "psutil", "procfs").
	Name() string

	// CPUPercent returns system-wide CPU utilisation since the previous call.
	CPUPercent(ctx context.Context) (float64, error)

	// MemoryPercent returns the share of physical memory in use.
	MemoryPercent(ctx context.Context) (float64, error)

	// DiskPercent returns the used share of the filesystem containing path.
	DiskPercent(ctx context.Context, path string) (float64, error)

	// NetworkCounters returns cumulative byte counters summed over all
	// interfaces. They are monotonic until an OS-level reset.
	NetworkCounters(ctx context.Context) (NetCounters, error)

	// ListProcesses returns a best-effort process snapshot. Processes that
	// vanish during enumeration are omitted, not reported as errors.
	ListProcesses(ctx context.Context) ([]ProcessInfo, error)
}

// Registry holds the available sources and provides lookup by name.
type Registry struct {
	sources []Source
}

// NewRegistry creates a new empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make([]Source, 0),
	}
}

// Register adds a source to the registry.
// If a source with the same name already exists, it is replaced.
func (r *Registry) Register(s Source) {
	for i, existing := range r.sources {
		if existing.Name() == s.Name() {
			r.sources[i] = s
			return
		}
	}
	r.sources = append(r.sources, s)
}

// Get returns a source by name. The second return value indicates
// whether the source was found.
func (r *Registry) Get(name string) (Source, bool) {
	for _, s := range r.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	sort.Strings(names)
	return names
}
