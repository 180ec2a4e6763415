// Package retry guards metric channels with circuit breakers. A channel that
// fails repeatedly is skipped for increasing intervals so a broken mount or a
// permission-restricted /proc entry does not cost a read timeout every cycle.
package retry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"emperror.dev/errors"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed is normal operation; reads pass through to the source.
	StateClosed State = iota
	// StateOpen means failures exceeded the threshold; reads are short-circuited.
	StateOpen
	// StateHalfOpen is a probe state testing whether the channel has recovered.
	StateHalfOpen
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config configures the circuit breaker behavior.
type Config struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int
	// ResetTimeout is the initial wait before moving from Open to HalfOpen.
	ResetTimeout time.Duration
	// MaxResetTimeout caps the exponential backoff.
	MaxResetTimeout time.Duration
	// BackoffMultiplier grows ResetTimeout on each re-open.
	BackoffMultiplier float64
	// Logger for breaker events. Nil is safe (a discard logger is used).
	Logger *slog.Logger
}

// DefaultConfig returns defaults tuned for second-scale sampling.
func DefaultConfig() Config {
	return Config{
		MaxFailures:       3,
		ResetTimeout:      30 * time.Second,
		MaxResetTimeout:   5 * time.Minute,
		BackoffMultiplier: 2.0,
	}
}

// Stats holds circuit breaker statistics for external inspection.
type Stats struct {
	State            State
	ConsecutiveFails int
	TotalFailures    int
	TotalSuccesses   int
	LastFailure      time.Time
	LastSuccess      time.Time
	CurrentTimeout   time.Duration
	ConsecutiveSkips int
}

// Breaker tracks failures of a single named channel.
type Breaker struct {
	name   string
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu               sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	lastSuccess      time.Time
	currentTimeout   time.Duration
	totalFailures    int
	totalSuccesses   int
	consecutiveSkips int
}

// NewBreaker creates a closed breaker for the named channel.
func NewBreaker(name string, cfg Config) *Breaker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 1
	}
	if cfg.MaxResetTimeout < cfg.ResetTimeout {
		cfg.MaxResetTimeout = cfg.ResetTimeout
	}
	return &Breaker{
		name:           name,
		config:         cfg,
		logger:         logger,
		now:            time.Now,
		state:          StateClosed,
		currentTimeout: cfg.ResetTimeout,
	}
}

// Do runs fn unless the circuit is open. While open it returns an error
// wrapping collectors.ErrCircuitOpen without calling fn.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.state {
	case StateOpen:
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed < b.currentTimeout {
			remaining := b.currentTimeout - elapsed
			b.consecutiveSkips++
			skips, failures := b.consecutiveSkips, b.failures
			b.mu.Unlock()

			b.logger.Debug("circuit breaker open, skipping read",
				"channel", b.name,
				"failures", failures,
				"retry_in", remaining,
				"skips", skips,
			)
			return errors.WithStack(fmt.Errorf("%s: %w (retry in %s)",
				b.name, collectors.ErrCircuitOpen, remaining.Truncate(time.Millisecond)))
		}
		b.state = StateHalfOpen
		b.logger.Info("circuit breaker transitioning to half-open", "channel", b.name)
		b.mu.Unlock()
		return b.probe(ctx, fn)

	case StateHalfOpen:
		b.mu.Unlock()
		return b.probe(ctx, fn)

	default:
		b.mu.Unlock()
	}

	if err := fn(ctx); err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// probe runs fn as a half-open recovery test.
func (b *Breaker) probe(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.totalFailures++
		b.lastFailure = b.now()
		b.currentTimeout = time.Duration(float64(b.currentTimeout) * b.config.BackoffMultiplier)
		if b.currentTimeout > b.config.MaxResetTimeout {
			b.currentTimeout = b.config.MaxResetTimeout
		}
		b.state = StateOpen
		b.logger.Warn("circuit breaker re-opened after half-open failure",
			"channel", b.name,
			"failures", b.failures,
			"next_timeout", b.currentTimeout,
		)
		return err
	}

	b.state = StateClosed
	b.failures = 0
	b.consecutiveSkips = 0
	b.totalSuccesses++
	b.lastSuccess = b.now()
	b.currentTimeout = b.config.ResetTimeout
	b.logger.Info("circuit breaker closed after successful probe", "channel", b.name)
	return nil
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.totalFailures++
	b.lastFailure = b.now()

	if b.failures >= b.config.MaxFailures {
		b.state = StateOpen
		b.currentTimeout = b.config.ResetTimeout
		b.logger.Warn("circuit breaker opened",
			"channel", b.name,
			"failures", b.failures,
			"timeout", b.currentTimeout,
		)
	}
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.consecutiveSkips = 0
	b.totalSuccesses++
	b.lastSuccess = b.now()
}

// State returns the current circuit breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker statistics.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:            b.state,
		ConsecutiveFails: b.failures,
		TotalFailures:    b.totalFailures,
		TotalSuccesses:   b.totalSuccesses,
		LastFailure:      b.lastFailure,
		LastSuccess:      b.lastSuccess,
		CurrentTimeout:   b.currentTimeout,
		ConsecutiveSkips: b.consecutiveSkips,
	}
}

// Reset forces the breaker back to the closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.consecutiveSkips = 0
	b.currentTimeout = b.config.ResetTimeout
	b.logger.Info("circuit breaker manually reset", "channel", b.name)
}
