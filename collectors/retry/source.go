package retry

import (
	"context"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// Compile-time check: GuardedSource satisfies the Source interface.
var _ collectors.Source = (*GuardedSource)(nil)

// GuardedSource wraps a collectors.Source with one breaker per channel, so a
// failing disk read never short-circuits CPU or memory.
type GuardedSource struct {
	src      collectors.Source
	breakers map[collectors.Channel]*Breaker
}

// Guard wraps src with per-channel circuit breakers sharing cfg.
func Guard(src collectors.Source, cfg Config) *GuardedSource {
	g := &GuardedSource{
		src:      src,
		breakers: make(map[collectors.Channel]*Breaker),
	}
	for _, ch := range append(collectors.SeriesChannels, collectors.ChannelProcesses) {
		g.breakers[ch] = NewBreaker(string(ch), cfg)
	}
	return g
}

// Name delegates to the wrapped source.
func (g *GuardedSource) Name() string { return g.src.Name() }

// Unwrap returns the wrapped source.
func (g *GuardedSource) Unwrap() collectors.Source { return g.src }

// Breaker returns the breaker guarding ch, or nil for an unknown channel.
func (g *GuardedSource) Breaker(ch collectors.Channel) *Breaker {
	return g.breakers[ch]
}

// Stats returns the statistics of every channel breaker.
func (g *GuardedSource) Stats() map[collectors.Channel]Stats {
	out := make(map[collectors.Channel]Stats, len(g.breakers))
	for ch, b := range g.breakers {
		out[ch] = b.Stats()
	}
	return out
}

// Reset closes every channel breaker.
func (g *GuardedSource) Reset() {
	for _, b := range g.breakers {
		b.Reset()
	}
}

func guarded[T any](ctx context.Context, b *Breaker, read func(context.Context) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		v, err := read(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// CPUPercent implements collectors.Source.
func (g *GuardedSource) CPUPercent(ctx context.Context) (float64, error) {
	return guarded(ctx, g.breakers[collectors.ChannelCPU], g.src.CPUPercent)
}

// MemoryPercent implements collectors.Source.
func (g *GuardedSource) MemoryPercent(ctx context.Context) (float64, error) {
	return guarded(ctx, g.breakers[collectors.ChannelMemory], g.src.MemoryPercent)
}

// DiskPercent implements collectors.Source.
func (g *GuardedSource) DiskPercent(ctx context.Context, path string) (float64, error) {
	return guarded(ctx, g.breakers[collectors.ChannelDisk], func(ctx context.Context) (float64, error) {
		return g.src.DiskPercent(ctx, path)
	})
}

// NetworkCounters implements collectors.Source.
func (g *GuardedSource) NetworkCounters(ctx context.Context) (collectors.NetCounters, error) {
	return guarded(ctx, g.breakers[collectors.ChannelNetwork], g.src.NetworkCounters)
}

// ListProcesses implements collectors.Source.
func (g *GuardedSource) ListProcesses(ctx context.Context) ([]collectors.ProcessInfo, error) {
	return guarded(ctx, g.breakers[collectors.ChannelProcesses], g.src.ListProcesses)
}
