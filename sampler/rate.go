package sampler

import (
	"github.com/c2h5oh/datasize"
)

// CounterDelta returns cur - prev for a cumulative counter. A counter that
// went backwards (OS reset or wraparound) yields 0 with reset set.
func CounterDelta(prev, cur uint64) (delta uint64, reset bool) {
	if cur < prev {
		return 0, true
	}
	return cur - prev, false
}

// netRate converts successive cumulative byte totals into megabytes
// transferred since the previous observation.
type netRate struct {
	prev   uint64
	primed bool
}

// seed sets the baseline without producing a rate.
func (r *netRate) seed(total uint64) {
	r.prev = total
	r.primed = true
}

// observe returns the MB moved since the last observation. With no baseline
// the result is 0. The new total always becomes the baseline.
func (r *netRate) observe(total uint64) (mb float64, reset bool) {
	if !r.primed {
		r.seed(total)
		return 0, false
	}
	delta, reset := CounterDelta(r.prev, total)
	r.prev = total
	return datasize.ByteSize(delta).MBytes(), reset
}
