// Package config loads host-pulse settings from TOML with environment
// overrides.
package config

import (
	"time"
)

// Config is the root configuration for host-pulse.
type Config struct {
	// General settings
	General GeneralConfig `toml:"general"`

	// Sampling engine
	Sampler SamplerConfig `toml:"sampler"`

	// Per-channel circuit breakers
	Breaker BreakerConfig `toml:"breaker"`

	// Presentation
	Display DisplayConfig `toml:"display"`
}

// GeneralConfig holds process-level settings.
type GeneralConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// LogFile receives logs. Empty means stderr, except in TUI mode where
	// logs are discarded so they do not corrupt the screen.
	LogFile string `toml:"log_file"`

	// CacheDir holds the daemon's snapshot, PID and health files.
	CacheDir string `toml:"cache_dir"`
}

// SamplerConfig holds the sampling-engine startup constants.
type SamplerConfig struct {
	// SampleIntervalMS is the tick cadence in milliseconds.
	SampleIntervalMS int `toml:"sample_interval_ms"`

	// HistoryCapacity is the number of samples kept per channel.
	HistoryCapacity int `toml:"history_capacity"`

	// ProcessListCap is the collapsed process-list length.
	ProcessListCap int `toml:"process_list_cap"`

	// DiskPath selects the filesystem whose usage is sampled.
	DiskPath string `toml:"disk_path"`

	// ReadTimeout bounds each metric read.
	ReadTimeout Duration `toml:"read_timeout"`

	// Source selects the metric backend: psutil, procfs or mock.
	Source string `toml:"source"`
}

// Interval returns the sampling cadence as a duration.
func (s SamplerConfig) Interval() time.Duration {
	return time.Duration(s.SampleIntervalMS) * time.Millisecond
}

// BreakerConfig configures the per-channel circuit breakers.
type BreakerConfig struct {
	Enabled         bool     `toml:"enabled"`
	MaxFailures     int      `toml:"max_failures"`
	ResetTimeout    Duration `toml:"reset_timeout"`
	MaxResetTimeout Duration `toml:"max_reset_timeout"`
}

// DisplayConfig holds presentation settings.
type DisplayConfig struct {
	// SparklineWidth is the TUI sparkline width in cells.
	SparklineWidth int `toml:"sparkline_width"`

	// ChartWidth and ChartHeight size the PNG chart in pixels.
	ChartWidth  int `toml:"chart_width"`
	ChartHeight int `toml:"chart_height"`
}

// Source names accepted by SamplerConfig.Source.
const (
	SourcePsutil = "psutil"
	SourceProcfs = "procfs"
	SourceMock   = "mock"
)
