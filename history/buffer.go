// Package history provides the fixed-capacity sample windows that back every
// metric channel. A Buffer keeps the most recent samples in insertion order and
// evicts the oldest one when a new sample arrives at capacity.
package history

import "time"

// Sample is a single recorded value and the time it was taken.
type Sample[T any] struct {
	Value T         `json:"value"`
	At    time.Time `json:"at"`
}

// Buffer is a bounded FIFO window of samples backed by a ring.
//
// A Buffer has a single writer. It does no locking of its own; readers get
// copies from Values and Samples, never views into the ring.
type Buffer[T any] struct {
	data  []Sample[T]
	head  int // next write position
	count int // number of valid samples

	now func() time.Time
}

// New creates a Buffer holding at most capacity samples. The capacity is
// fixed for the lifetime of the buffer.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		panic("history: capacity must be at least 1")
	}
	return &Buffer[T]{
		data: make([]Sample[T], capacity),
		now:  time.Now,
	}
}

// Append records v as the newest sample, stamped with the current time.
func (b *Buffer[T]) Append(v T) {
	b.AppendAt(v, b.now())
}

// AppendAt records v as the newest sample with an explicit timestamp. When the
// buffer is full the single oldest sample is evicted first.
func (b *Buffer[T]) AppendAt(v T, at time.Time) {
	b.data[b.head] = Sample[T]{Value: v, At: at}
	b.head = (b.head + 1) % len(b.data)
	if b.count < len(b.data) {
		b.count++
	}
}

// Values returns the buffered values, oldest first.
func (b *Buffer[T]) Values() []T {
	out := make([]T, b.count)
	start := b.start()
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(start+i)%len(b.data)].Value
	}
	return out
}

// Samples returns the buffered samples with their timestamps, oldest first.
func (b *Buffer[T]) Samples() []Sample[T] {
	out := make([]Sample[T], b.count)
	start := b.start()
	for i := 0; i < b.count; i++ {
		out[i] = b.data[(start+i)%len(b.data)]
	}
	return out
}

// Latest returns the newest sample. ok is false when the buffer is empty.
func (b *Buffer[T]) Latest() (s Sample[T], ok bool) {
	if b.count == 0 {
		return s, false
	}
	idx := (b.head - 1 + len(b.data)) % len(b.data)
	return b.data[idx], true
}

// Len returns the number of buffered samples.
func (b *Buffer[T]) Len() int { return b.count }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return len(b.data) }

func (b *Buffer[T]) start() int {
	return (b.head - b.count + len(b.data)) % len(b.data)
}
