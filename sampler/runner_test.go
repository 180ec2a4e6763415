package sampler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

func recv(t *testing.T, ch <-chan *collectors.Snapshot) *collectors.Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

// TestRunner_PublishesImmediatelyAndOnTicks verifies the first cycle runs on
// Start and later cycles follow the ticker.
func TestRunner_PublishesImmediatelyAndOnTicks(t *testing.T) {
	s := New(collectors.NewMockSource(), Options{HistoryCapacity: 5})
	updates := make(chan *collectors.Snapshot, DefaultUpdateBufferSize)
	r := NewRunner(s, nil, updates, RunnerOptions{Interval: 10 * time.Millisecond})

	r.Start(context.Background())
	defer r.Stop()

	first := recv(t, updates)
	second := recv(t, updates)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Greater(t, second.Seq, first.Seq)
}

// TestRunner_ReadsToggleEachCycle verifies the toggle state is read at the
// start of every cycle.
func TestRunner_ReadsToggleEachCycle(t *testing.T) {
	s := New(collectors.NewMockSource(), Options{HistoryCapacity: 5, ProcessListCap: 2})
	updates := make(chan *collectors.Snapshot, 1)
	var tg Toggle
	r := NewRunner(s, &tg, updates, RunnerOptions{Interval: time.Hour})

	r.Start(context.Background())
	defer r.Stop()

	snap := recv(t, updates)
	assert.Len(t, snap.Processes.Entries, 2)

	tg.Set(true)
	r.TriggerNow()
	snap = recv(t, updates)
	assert.True(t, snap.Processes.Expanded)
	assert.Greater(t, len(snap.Processes.Entries), 2)
}

// TestRunner_FullChannelDropsInsteadOfBlocking verifies a consumer that never
// reads does not stall the sampling loop.
func TestRunner_FullChannelDropsInsteadOfBlocking(t *testing.T) {
	src := collectors.NewMockSource()
	s := New(src, Options{HistoryCapacity: 5})
	updates := make(chan *collectors.Snapshot)
	r := NewRunner(s, nil, updates, RunnerOptions{Interval: 5 * time.Millisecond})

	r.Start(context.Background())
	require.Eventually(t, func() bool {
		dropped, _ := r.Stats()
		return dropped >= 3
	}, 2*time.Second, 5*time.Millisecond)

	r.Stop()
	select {
	case <-r.Done():
	default:
		t.Fatal("runner loop still running after Stop")
	}
}

// TestRunner_StopsOnContextCancel verifies the loop exits with its context.
func TestRunner_StopsOnContextCancel(t *testing.T) {
	s := New(collectors.NewMockSource(), Options{})
	updates := make(chan *collectors.Snapshot, 8)
	r := NewRunner(s, nil, updates, RunnerOptions{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	recv(t, updates)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
	r.Stop()
}

// TestRunner_StopBeforeStart verifies Stop is safe on a runner never started.
func TestRunner_StopBeforeStart(t *testing.T) {
	r := NewRunner(New(collectors.NewMockSource(), Options{}), nil, make(chan *collectors.Snapshot), RunnerOptions{})
	r.Stop()
	assert.Equal(t, DefaultInterval, r.interval)
}

// TestRunner_KeepsSamplingThroughFailures verifies a degraded channel never
// stops snapshots from being published, and that warnings are deduplicated.
func TestRunner_KeepsSamplingThroughFailures(t *testing.T) {
	var reads atomic.Int64
	src := collectors.NewMockSource()
	src.DiskFunc = func(context.Context, string) (float64, error) {
		reads.Add(1)
		return 0, errors.New("mount gone")
	}
	s := New(src, Options{HistoryCapacity: 3})
	updates := make(chan *collectors.Snapshot, 16)
	r := NewRunner(s, nil, updates, RunnerOptions{Interval: 5 * time.Millisecond})

	r.Start(context.Background())
	for i := 0; i < 4; i++ {
		snap := recv(t, updates)
		st, _ := snap.Status(collectors.ChannelDisk)
		assert.NotEqual(t, collectors.ReadOK, st.State)
	}
	r.Stop()

	r.mu.Lock()
	tracker := r.errTrackers[collectors.ChannelDisk]
	r.mu.Unlock()
	require.NotNil(t, tracker)
	assert.GreaterOrEqual(t, tracker.suppressed, int64(3))
}
