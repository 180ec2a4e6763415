package collectors

import (
	"fmt"

	"emperror.dev/errors"
)

const (
	// ErrTransientRead marks a single channel that could not be read this
	// cycle. The sampler recovers by substituting the last known value.
	ErrTransientRead = errors.Sentinel("transient read failure")

	// ErrCounterReset marks a cumulative counter that went backwards since
	// the previous cycle. The derived delta is clamped to zero.
	ErrCounterReset = errors.Sentinel("counter reset")

	// ErrEnumerationRace marks a process that vanished between being listed
	// and having its metrics read.
	ErrEnumerationRace = errors.Sentinel("process vanished during enumeration")

	// ErrSourceUnavailable is returned at startup when no channel of the
	// source can be read at all.
	ErrSourceUnavailable = errors.Sentinel("metric source unavailable")

	// ErrCircuitOpen is returned by a channel whose circuit breaker is open.
	ErrCircuitOpen = errors.Sentinel("circuit breaker open")
)

// ReadFailure wraps err as a transient failure of channel. The channel name is
// attached as an error detail so log handlers can pick it up.
func ReadFailure(channel Channel, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithDetails(
		errors.WithStack(fmt.Errorf("%s: %w: %w", channel, ErrTransientRead, err)),
		"channel", string(channel),
	)
}

// IsTransient reports whether err is a recoverable per-channel failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientRead) || errors.Is(err, ErrCircuitOpen)
}

// ErrCycleInFlight is returned by a tick that arrives while a sampling cycle
// is still running. The tick is dropped; no buffer is touched.
const ErrCycleInFlight = errors.Sentinel("sampling cycle already in flight")
