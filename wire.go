package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/automaxprocs/maxprocs"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
	"gitlab.com/tinyland/lab/host-pulse/collectors/psutil"
	"gitlab.com/tinyland/lab/host-pulse/collectors/retry"
	"gitlab.com/tinyland/lab/host-pulse/config"
	"gitlab.com/tinyland/lab/host-pulse/sampler"
)

// newLogger builds the process logger from config. Logs go to the configured
// file when set; otherwise to fallback, which is io.Discard in TUI mode so
// log lines never land on the alternate screen. The returned closer releases
// the log file.
func newLogger(cfg config.GeneralConfig, fallback io.Writer) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}

	out, closer := fallback, func() error { return nil }
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f.Close
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}

// tuneMaxProcs matches GOMAXPROCS to the container CPU quota, logging through
// slog instead of the package's default stdout printer.
func tuneMaxProcs(logger *slog.Logger) {
	_, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
	}))
	if err != nil {
		logger.Warn("failed to set GOMAXPROCS", "error", err)
	}
}

// newRegistry registers every source available on this platform.
func newRegistry(logger *slog.Logger) *collectors.Registry {
	reg := collectors.NewRegistry()
	reg.Register(psutil.New(psutil.Options{Logger: logger}))
	reg.Register(collectors.NewMockSource())
	registerPlatformSources(reg, logger)
	return reg
}

// newSource selects the configured source and wraps it in per-channel
// circuit breakers when enabled.
func newSource(cfg *config.Config, reg *collectors.Registry, logger *slog.Logger) (collectors.Source, error) {
	src, ok := reg.Get(cfg.Sampler.Source)
	if !ok {
		return nil, fmt.Errorf("source %q is not available on this platform (have: %s)",
			cfg.Sampler.Source, strings.Join(reg.Names(), ", "))
	}
	if !cfg.Breaker.Enabled {
		return src, nil
	}

	bc := retry.DefaultConfig()
	bc.MaxFailures = cfg.Breaker.MaxFailures
	bc.ResetTimeout = cfg.Breaker.ResetTimeout.Duration
	bc.MaxResetTimeout = cfg.Breaker.MaxResetTimeout.Duration
	bc.Logger = logger
	return retry.Guard(src, bc), nil
}

// newSampler builds a sampler from the sampler section of cfg.
func newSampler(cfg *config.Config, src collectors.Source, logger *slog.Logger) *sampler.Sampler {
	return sampler.New(src, sampler.Options{
		Interval:        cfg.Sampler.Interval(),
		HistoryCapacity: cfg.Sampler.HistoryCapacity,
		ProcessListCap:  cfg.Sampler.ProcessListCap,
		DiskPath:        cfg.Sampler.DiskPath,
		ReadTimeout:     cfg.Sampler.ReadTimeout.Duration,
		Logger:          logger,
	})
}
