package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"gitlab.com/tinyland/lab/host-pulse/cache"
	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/collectors/retry"
)

// Health states written by the daemon.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// HealthStatus is the daemon health record stored under cache.KeyHealth.
type HealthStatus struct {
	Status     string            `json:"status"`
	PID        int               `json:"pid"`
	Version    string            `json:"version"`
	Source     string            `json:"source"`
	StartedAt  time.Time         `json:"started_at"`
	LastSample time.Time         `json:"last_sample"`
	Seq        uint64            `json:"seq"`
	Interval   time.Duration     `json:"interval_ns"`
	Channels   map[string]string `json:"channels"`
	Breakers   map[string]string `json:"breakers,omitempty"`
	Dropped    int64             `json:"dropped"`
	Skipped    int64             `json:"skipped"`
}

// newHealthStatus summarises a published snapshot.
func newHealthStatus(snap *collectors.Snapshot, src collectors.Source, startedAt time.Time, dropped, skipped int64) *HealthStatus {
	h := &HealthStatus{
		Status:     healthOK,
		PID:        os.Getpid(),
		Version:    version,
		Source:     snap.Source,
		StartedAt:  startedAt,
		LastSample: snap.TakenAt,
		Seq:        snap.Seq,
		Interval:   snap.Interval,
		Channels:   make(map[string]string, len(snap.Channels)),
		Dropped:    dropped,
		Skipped:    skipped,
	}
	for _, st := range snap.Channels {
		h.Channels[string(st.Channel)] = string(st.State)
	}
	if snap.Degraded() {
		h.Status = healthDegraded
	}
	if g, ok := src.(*retry.GuardedSource); ok {
		h.Breakers = make(map[string]string)
		for ch, st := range g.Stats() {
			h.Breakers[string(ch)] = st.State.String()
		}
	}
	return h
}

// Age returns how long ago the daemon last sampled.
func (h *HealthStatus) Age(now time.Time) time.Duration {
	return now.Sub(h.LastSample)
}

// Stale reports whether the last sample is older than two intervals. A
// record without an interval falls back to the configured one.
func (h *HealthStatus) Stale(now time.Time, fallback time.Duration) bool {
	interval := h.Interval
	if interval <= 0 {
		interval = fallback
	}
	return h.Age(now) > 2*interval
}

// checkHealth reports the daemon's health from the cache and returns the
// process exit code: 0 when a fresh record exists, 1 otherwise.
func checkHealth(store *cache.Store, interval time.Duration, jsonOutput bool, stdout, stderr io.Writer, now time.Time) int {
	h, _, err := cache.GetTyped[HealthStatus](store, cache.KeyHealth, 0)
	if err != nil || h == nil {
		if jsonOutput {
			fmt.Fprintln(stdout, `{"status":"missing","error":"no health record found"}`)
		} else {
			fmt.Fprintln(stderr, "daemon not running (no health record)")
		}
		return 1
	}

	stale := h.Stale(now, interval)
	age := h.Age(now)

	if jsonOutput {
		out := struct {
			*HealthStatus
			Age   string `json:"age"`
			Stale bool   `json:"stale"`
		}{h, age.Round(time.Millisecond).String(), stale}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else if stale {
		fmt.Fprintf(stderr, "daemon stale (last sample %s ago, threshold %s)\n",
			age.Round(time.Second), 2*h.Interval)
	} else {
		fmt.Fprintf(stdout, "daemon %s (PID %d, source %s, sample #%d %s ago)\n",
			h.Status, h.PID, h.Source, h.Seq, age.Round(time.Second))
		for _, name := range sortedKeys(h.Channels) {
			line := fmt.Sprintf("  %s: %s", name, h.Channels[name])
			if b, ok := h.Breakers[name]; ok && b != retry.StateClosed.String() {
				line += " (breaker " + b + ")"
			}
			fmt.Fprintln(stdout, line)
		}
	}

	if stale {
		return 1
	}
	return 0
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
