package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(b *Buffer[float64], values ...float64) {
	for _, v := range values {
		b.Append(v)
	}
}

func TestNew_EmptyBuffer(t *testing.T) {
	b := New[float64](5)

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 5, b.Cap())
	assert.Empty(t, b.Values())

	_, ok := b.Latest()
	assert.False(t, ok)
}

func TestNew_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[float64](0) })
	assert.Panics(t, func() { New[int](-3) })
}

func TestAppend_BoundedHistory(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		input    []float64
		want     []float64
	}{
		{
			name:     "under capacity keeps all",
			capacity: 4,
			input:    []float64{1, 2, 3},
			want:     []float64{1, 2, 3},
		},
		{
			name:     "exactly full",
			capacity: 3,
			input:    []float64{1, 2, 3},
			want:     []float64{1, 2, 3},
		},
		{
			name:     "one past capacity drops the oldest",
			capacity: 3,
			input:    []float64{1, 2, 3, 4},
			want:     []float64{2, 3, 4},
		},
		{
			name:     "two past capacity drops the two oldest",
			capacity: 3,
			input:    []float64{1, 2, 3, 4, 5},
			want:     []float64{3, 4, 5},
		},
		{
			name:     "capacity one holds only the newest",
			capacity: 1,
			input:    []float64{7, 8, 9},
			want:     []float64{9},
		},
		{
			name:     "many wraps",
			capacity: 2,
			input:    []float64{1, 2, 3, 4, 5, 6, 7},
			want:     []float64{6, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New[float64](tt.capacity)
			fill(b, tt.input...)

			assert.Equal(t, tt.want, b.Values())
			assert.LessOrEqual(t, b.Len(), tt.capacity)
		})
	}
}

// N+1 appends into capacity N: length stays N and the first value is gone.
func TestAppend_NPlusOne(t *testing.T) {
	const n = 30
	b := New[float64](n)
	for i := 0; i <= n; i++ {
		b.Append(float64(i))
	}

	values := b.Values()
	require.Len(t, values, n)
	assert.NotContains(t, values, float64(0))
	for i, v := range values {
		assert.Equal(t, float64(i+1), v, "position %d", i)
	}
}

// Appending v1..v(N+2) into capacity N yields v3..v(N+2).
func TestAppend_FIFOEviction(t *testing.T) {
	const n = 5
	b := New[int](n)
	for i := 1; i <= n+2; i++ {
		b.Append(i)
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7}, b.Values())
}

func TestValues_ReturnsCopy(t *testing.T) {
	b := New[float64](3)
	fill(b, 1, 2, 3)

	got := b.Values()
	got[0] = 99

	assert.Equal(t, []float64{1, 2, 3}, b.Values())
}

func TestSamples_CarryTimestamps(t *testing.T) {
	b := New[float64](2)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	b.AppendAt(10, base)
	b.AppendAt(20, base.Add(2*time.Second))
	b.AppendAt(30, base.Add(4*time.Second))

	samples := b.Samples()
	require.Len(t, samples, 2)
	assert.Equal(t, Sample[float64]{Value: 20, At: base.Add(2 * time.Second)}, samples[0])
	assert.Equal(t, Sample[float64]{Value: 30, At: base.Add(4 * time.Second)}, samples[1])
}

func TestLatest(t *testing.T) {
	b := New[float64](2)
	fill(b, 1, 2, 3)

	s, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, float64(3), s.Value)
}

func TestAppend_UsesClock(t *testing.T) {
	b := New[string](2)
	fixed := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	b.Append("x")

	s, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, fixed, s.At)
}

func TestBuffers_AreIndependent(t *testing.T) {
	pct := New[float64](3)
	mb := New[float64](3)

	fill(pct, 10, 20)
	fill(mb, 0.5)

	assert.Equal(t, []float64{10, 20}, pct.Values())
	assert.Equal(t, []float64{0.5}, mb.Values())
}
