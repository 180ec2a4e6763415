package sampler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"emperror.dev/errors"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

const (
	// DefaultUpdateBufferSize is the capacity callers should give the updates
	// channel. A small buffer absorbs a renderer that is briefly busy.
	DefaultUpdateBufferSize = 4

	// DefaultStopTimeout is the maximum time Stop waits for the loop to exit.
	DefaultStopTimeout = 5 * time.Second

	// errRepeatWindow is how long an identical warning stays suppressed.
	errRepeatWindow = time.Hour
)

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Interval between ticks. Zero uses the sampler's configured interval.
	Interval time.Duration
	Logger   *slog.Logger
}

// errTracker deduplicates repeated identical warnings per channel.
type errTracker struct {
	lastMsg    string
	lastTime   time.Time
	suppressed int64
}

// Runner drives a Sampler from a ticker and publishes each snapshot on an
// updates channel. Ticks that arrive while a cycle is still running are
// dropped, and a full updates channel drops the snapshot rather than
// blocking sampling.
type Runner struct {
	sampler  *Sampler
	toggle   *Toggle
	updates  chan<- *collectors.Snapshot
	interval time.Duration
	logger   *slog.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu          sync.Mutex
	errTrackers map[collectors.Channel]*errTracker
	dropped     int64
	skipped     int64
}

// NewRunner creates a runner sending snapshots to updates. The caller owns
// the channel and must keep reading from it. toggle may be nil, in which case
// the process list is always capped.
func NewRunner(s *Sampler, toggle *Toggle, updates chan<- *collectors.Snapshot, opts RunnerOptions) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = s.Options().Interval
	}
	return &Runner{
		sampler:     s,
		toggle:      toggle,
		updates:     updates,
		interval:    interval,
		logger:      logger,
		trigger:     make(chan struct{}, 1),
		stopped:     make(chan struct{}),
		errTrackers: make(map[collectors.Channel]*errTracker),
	}
}

// Start launches the sampling loop. The first cycle runs immediately. The
// loop ends when ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
}

// Stop cancels the loop and waits for it to exit, with a timeout so a stuck
// source cannot hang shutdown.
func (r *Runner) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
	})
	if r.cancel == nil {
		return
	}

	select {
	case <-r.stopped:
	case <-time.After(DefaultStopTimeout):
		r.logger.Warn("sampler runner stop timed out", "timeout", DefaultStopTimeout)
	}
}

// Done is closed when the loop has exited.
func (r *Runner) Done() <-chan struct{} { return r.stopped }

// TriggerNow requests an immediate cycle outside the ticker cadence. Requests
// made while one is already pending are coalesced.
func (r *Runner) TriggerNow() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stats returns how many snapshots were dropped on a full channel and how
// many ticks were skipped because a cycle was in flight.
func (r *Runner) Stats() (dropped, skipped int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped, r.skipped
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.stopped)

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		case <-r.trigger:
			r.tick(ctx)
		}
	}
}

// tick runs one cycle and publishes the result.
func (r *Runner) tick(ctx context.Context) {
	snap, err := r.sampler.Tick(ctx, r.toggle.View())
	if err != nil {
		switch {
		case errors.Is(err, ErrCycleInFlight):
			r.mu.Lock()
			r.skipped++
			r.mu.Unlock()
			r.logger.Debug("tick skipped, cycle in flight")
		case ctx.Err() != nil:
		default:
			r.logger.Error("sampling cycle failed", "error", err)
		}
		return
	}

	r.logChannelErrors(snap)

	select {
	case r.updates <- snap:
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.logger.Debug("update channel full, dropping snapshot", "seq", snap.Seq)
	}
}

// logChannelErrors logs degraded channels, suppressing an identical message
// from the same channel for an hour with a summary every 100 repeats.
func (r *Runner) logChannelErrors(snap *collectors.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, st := range snap.Channels {
		tracker := r.errTrackers[st.Channel]
		if st.State == collectors.ReadOK {
			if tracker != nil && tracker.lastMsg != "" {
				r.logger.Info("channel recovered", "channel", st.Channel, "repeats", tracker.suppressed)
				delete(r.errTrackers, st.Channel)
			}
			continue
		}
		if tracker == nil {
			tracker = &errTracker{}
			r.errTrackers[st.Channel] = tracker
		}
		if st.Error == tracker.lastMsg && now.Sub(tracker.lastTime) < errRepeatWindow {
			tracker.suppressed++
			if tracker.suppressed%100 == 0 {
				r.logger.Warn("channel read failing",
					"channel", st.Channel, "repeated", tracker.suppressed, "error", st.Error)
			}
			continue
		}
		if tracker.suppressed > 0 {
			r.logger.Info("previous channel error repeated",
				"channel", st.Channel, "repeated", tracker.suppressed)
		}
		r.logger.Warn("channel read failed",
			"channel", st.Channel, "state", st.State, "error", st.Error)
		tracker.lastMsg = st.Error
		tracker.lastTime = now
		tracker.suppressed = 0
	}
}
