package config

import (
	"time"

	"emperror.dev/errors"
)

// Limits on sampler settings.
const (
	MinSampleInterval  = 100 * time.Millisecond
	MaxSampleInterval  = time.Hour
	MinHistoryCapacity = 1
	MaxHistoryCapacity = 10000
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, errors.Errorf(format, args...))
	}

	switch c.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		add("general.log_level must be debug, info, warn or error, got %q", c.General.LogLevel)
	}

	s := c.Sampler
	if iv := s.Interval(); iv < MinSampleInterval || iv > MaxSampleInterval {
		add("sampler.sample_interval_ms must be between %d and %d, got %d",
			MinSampleInterval.Milliseconds(), MaxSampleInterval.Milliseconds(), s.SampleIntervalMS)
	}
	if s.HistoryCapacity < MinHistoryCapacity || s.HistoryCapacity > MaxHistoryCapacity {
		add("sampler.history_capacity must be between %d and %d, got %d",
			MinHistoryCapacity, MaxHistoryCapacity, s.HistoryCapacity)
	}
	if s.ProcessListCap < 1 {
		add("sampler.process_list_cap must be at least 1, got %d", s.ProcessListCap)
	}
	if s.DiskPath == "" {
		add("sampler.disk_path is required")
	}
	if s.ReadTimeout.Duration <= 0 {
		add("sampler.read_timeout must be positive, got %s", s.ReadTimeout.Duration)
	}
	switch s.Source {
	case SourcePsutil, SourceProcfs, SourceMock:
	default:
		add("sampler.source must be psutil, procfs or mock, got %q", s.Source)
	}

	if b := c.Breaker; b.Enabled {
		if b.MaxFailures < 1 {
			add("breaker.max_failures must be at least 1, got %d", b.MaxFailures)
		}
		if b.ResetTimeout.Duration <= 0 {
			add("breaker.reset_timeout must be positive")
		}
		if b.MaxResetTimeout.Duration < b.ResetTimeout.Duration {
			add("breaker.max_reset_timeout must not be below reset_timeout")
		}
	}

	d := c.Display
	if d.SparklineWidth < 1 {
		add("display.sparkline_width must be at least 1, got %d", d.SparklineWidth)
	}
	if d.ChartWidth < 100 || d.ChartHeight < 100 {
		add("display.chart_width and chart_height must be at least 100, got %dx%d", d.ChartWidth, d.ChartHeight)
	}

	return errors.Combine(errs...)
}
