package sampler

import "sync/atomic"

// Toggle is the "show more processes" switch. It is written by UI event
// handlers and read once at the start of each cycle.
type Toggle struct {
	expanded atomic.Bool
}

// Expanded reports whether the process list is uncapped.
func (t *Toggle) Expanded() bool { return t.expanded.Load() }

// Set changes the state.
func (t *Toggle) Set(expanded bool) { t.expanded.Store(expanded) }

// Flip inverts the state and returns the new value.
func (t *Toggle) Flip() bool {
	for {
		old := t.expanded.Load()
		if t.expanded.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// View returns the view state for a cycle.
func (t *Toggle) View() ViewState {
	if t == nil {
		return ViewState{}
	}
	return ViewState{ExpandProcesses: t.Expanded()}
}
