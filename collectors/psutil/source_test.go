package psutil

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

type fakeProc struct {
	name string
	cpu  float64
	mem  float32
	err  error
}

func (f *fakeProc) NameWithContext(context.Context) (string, error) { return f.name, f.err }
func (f *fakeProc) PercentWithContext(context.Context, time.Duration) (float64, error) {
	return f.cpu, nil
}
func (f *fakeProc) MemoryPercentWithContext(context.Context) (float32, error) { return f.mem, nil }

func newFakeSource(procs map[int32]*fakeProc, order []int32) *Source {
	s := New(Options{})
	s.pids = func(context.Context) ([]int32, error) { return order, nil }
	s.newProcess = func(_ context.Context, pid int32) (proc, error) {
		p, ok := procs[pid]
		if !ok {
			return nil, process.ErrorProcessNotRunning
		}
		return p, nil
	}
	return s
}

// TestListProcesses_SkipsVanished verifies that processes exiting between
// the pid listing and the metric reads are omitted without an error.
func TestListProcesses_SkipsVanished(t *testing.T) {
	s := newFakeSource(map[int32]*fakeProc{
		1:  {name: "init", cpu: 0.5, mem: 0.1},
		42: {name: "gone", err: fs.ErrNotExist},
		77: {name: "worker", cpu: 12, mem: 3.5},
	}, []int32{1, 42, 77, 99})

	got, err := s.ListProcesses(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, collectors.ProcessInfo{PID: 1, Name: "init", CPUPercent: 0.5, MemoryPercent: float64(float32(0.1))}, got[0])
	assert.Equal(t, int32(77), got[1].PID)
	assert.Equal(t, 12.0, got[1].CPUPercent)
}

// TestListProcesses_PidError verifies that a failed pid listing is reported.
func TestListProcesses_PidError(t *testing.T) {
	s := New(Options{})
	s.pids = func(context.Context) ([]int32, error) { return nil, errors.New("no /proc") }

	_, err := s.ListProcesses(context.Background())
	assert.ErrorContains(t, err, "list pids")
}

// TestListProcesses_Cancelled verifies that a cancelled context aborts the scan.
func TestListProcesses_Cancelled(t *testing.T) {
	s := newFakeSource(map[int32]*fakeProc{1: {name: "init"}}, []int32{1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListProcesses(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(process.ErrorProcessNotRunning), collectors.ErrEnumerationRace)
	assert.ErrorIs(t, classify(fs.ErrNotExist), collectors.ErrEnumerationRace)

	other := errors.New("permission denied")
	assert.Same(t, other, classify(other))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, clampPercent(-3))
	assert.Equal(t, 100.0, clampPercent(100.0001))
	assert.Equal(t, 55.5, clampPercent(55.5))
}

// TestLiveHost reads every channel from the running host. Channels that the
// sandbox cannot read are skipped rather than failed.
func TestLiveHost(t *testing.T) {
	if testing.Short() {
		t.Skip("live host read")
	}
	s := New(Options{})
	ctx := context.Background()

	if v, err := s.MemoryPercent(ctx); err == nil {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	if v, err := s.DiskPercent(ctx, "/"); err == nil {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
	if procs, err := s.ListProcesses(ctx); err == nil {
		for _, p := range procs {
			assert.Greater(t, p.PID, int32(0))
		}
	}
	assert.Equal(t, "psutil", s.Name())
}
