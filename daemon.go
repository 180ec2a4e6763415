package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gitlab.com/tinyland/lab/host-pulse/cache"
	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/sampler"
)

const pidFileName = "daemon.pid"

// daemon runs the sampling loop in the background and publishes every
// snapshot to the cache so -watch, -health and -png can read it.
type daemon struct {
	logger    *slog.Logger
	store     *cache.Store
	sampler   *sampler.Sampler
	pidFile   string
	startedAt time.Time
}

// newDaemon creates a daemon publishing into store. The PID file lives in
// cacheDir next to the cached snapshot.
func newDaemon(cacheDir string, store *cache.Store, smp *sampler.Sampler, logger *slog.Logger) *daemon {
	return &daemon{
		logger:  logger,
		store:   store,
		sampler: smp,
		pidFile: filepath.Join(cacheDir, pidFileName),
	}
}

// writePIDFile records the current PID.
func (d *daemon) writePIDFile() error {
	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	d.logger.Info("wrote PID file", "path", d.pidFile, "pid", pid)
	return nil
}

// removePIDFile removes the PID file on shutdown.
func (d *daemon) removePIDFile() {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		d.logger.Error("failed to remove PID file", "path", d.pidFile, "error", err)
		return
	}
	d.logger.Info("removed PID file", "path", d.pidFile)
}

// isRunning reports whether the PID file names a live process. Corrupt or
// stale PID files are removed.
func (d *daemon) isRunning() (bool, int) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		d.logger.Warn("corrupt PID file, removing", "path", d.pidFile, "content", string(data))
		_ = os.Remove(d.pidFile)
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.Signal(0))
	}
	if err != nil {
		d.logger.Warn("stale PID file, removing", "path", d.pidFile, "pid", pid)
		_ = os.Remove(d.pidFile)
		return false, 0
	}
	return true, pid
}

// run primes the sampler and publishes snapshots until ctx is cancelled.
func (d *daemon) run(ctx context.Context) error {
	if running, pid := d.isRunning(); running {
		return fmt.Errorf("daemon already running (PID %d)", pid)
	}
	if err := d.writePIDFile(); err != nil {
		return err
	}
	defer d.removePIDFile()

	if err := d.sampler.Prime(ctx); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}
	d.startedAt = time.Now()

	updates := make(chan *collectors.Snapshot, sampler.DefaultUpdateBufferSize)
	runner := sampler.NewRunner(d.sampler, nil, updates, sampler.RunnerOptions{Logger: d.logger})
	runner.Start(ctx)
	defer runner.Stop()

	d.logger.Info("daemon started",
		"source", d.sampler.Source().Name(),
		"interval", d.sampler.Options().Interval,
		"cache_dir", d.store.Dir(),
	)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon shutting down gracefully")
			return ctx.Err()
		case snap := <-updates:
			dropped, skipped := runner.Stats()
			d.publish(snap, dropped, skipped)
		}
	}
}

// publish writes the snapshot and a matching health record. Write failures
// are logged; the next cycle retries.
func (d *daemon) publish(snap *collectors.Snapshot, dropped, skipped int64) {
	if err := cache.SetTyped(d.store, cache.KeySnapshot, snap); err != nil {
		d.logger.Error("snapshot write failed", "seq", snap.Seq, "error", err)
		return
	}

	health := newHealthStatus(snap, d.sampler.Source(), d.startedAt, dropped, skipped)
	if err := cache.SetTyped(d.store, cache.KeyHealth, health); err != nil {
		d.logger.Error("health write failed", "seq", snap.Seq, "error", err)
		return
	}
	d.logger.Debug("published snapshot", "seq", snap.Seq, "status", health.Status)
}
