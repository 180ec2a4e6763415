package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

func pids(list collectors.ProcessList) []int32 {
	out := make([]int32, len(list.Entries))
	for i, p := range list.Entries {
		out[i] = p.PID
	}
	return out
}

// TestRankProcesses_StableOnTies verifies that equal CPU values keep their
// input order.
func TestRankProcesses_StableOnTies(t *testing.T) {
	procs := []collectors.ProcessInfo{
		{PID: 1, CPUPercent: 5},
		{PID: 2, CPUPercent: 5},
		{PID: 3, CPUPercent: 10},
	}

	got := RankProcesses(procs, 2)
	assert.Equal(t, []int32{3, 1}, pids(got))
	assert.Equal(t, 3, got.Total)
	assert.True(t, got.Truncated())
}

// TestRankProcesses_Limit covers the limit edge cases.
func TestRankProcesses_Limit(t *testing.T) {
	procs := []collectors.ProcessInfo{
		{PID: 10, CPUPercent: 1},
		{PID: 11, CPUPercent: 30},
		{PID: 12, CPUPercent: 7},
		{PID: 13, CPUPercent: 7},
	}
	full := []int32{11, 12, 13, 10}

	tests := []struct {
		name  string
		limit int
		want  []int32
	}{
		{"zero is uncapped", 0, full},
		{"negative is uncapped", -1, full},
		{"exact length", len(procs), full},
		{"beyond length", 100, full},
		{"one", 1, []int32{11}},
		{"three", 3, []int32{11, 12, 13}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankProcesses(procs, tt.limit)
			assert.Equal(t, tt.want, pids(got))
			assert.Equal(t, tt.limit, got.Limit)
		})
	}
}

// TestRankProcesses_DropsUnreadable verifies that malformed entries are
// removed and counted instead of appearing as placeholders.
func TestRankProcesses_DropsUnreadable(t *testing.T) {
	procs := []collectors.ProcessInfo{
		{PID: 1, CPUPercent: 3},
		{PID: 0, CPUPercent: 99},
		{PID: 2, CPUPercent: math.NaN()},
		{PID: 3, CPUPercent: 2, MemoryPercent: -1},
		{PID: 4, CPUPercent: 50},
	}

	got := RankProcesses(procs, 0)
	assert.Equal(t, []int32{4, 1}, pids(got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 3, got.Dropped)
}

// TestRankProcesses_DoesNotMutateInput verifies the input slice is untouched.
func TestRankProcesses_DoesNotMutateInput(t *testing.T) {
	procs := []collectors.ProcessInfo{
		{PID: 1, CPUPercent: 1},
		{PID: 2, CPUPercent: 2},
		{PID: 3, CPUPercent: 3},
	}
	orig := append([]collectors.ProcessInfo(nil), procs...)

	got := RankProcesses(procs, 2)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, orig, procs)

	// Appending to the result must not write into a shared backing array.
	_ = append(got.Entries, collectors.ProcessInfo{PID: 9})
	assert.Equal(t, orig, procs)
}

func TestRankProcesses_Empty(t *testing.T) {
	got := RankProcesses(nil, 20)
	assert.Empty(t, got.Entries)
	assert.Zero(t, got.Total)
	assert.False(t, got.Truncated())
}
