package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every HOSTPULSE_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "HOSTPULSE_") {
			t.Setenv(name, "")
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.General.LogLevel)
	assert.NotEmpty(t, cfg.General.CacheDir)

	assert.Equal(t, 2000, cfg.Sampler.SampleIntervalMS)
	assert.Equal(t, 2*time.Second, cfg.Sampler.Interval())
	assert.Equal(t, 30, cfg.Sampler.HistoryCapacity)
	assert.Equal(t, 20, cfg.Sampler.ProcessListCap)
	assert.Equal(t, "/", cfg.Sampler.DiskPath)
	assert.Equal(t, time.Second, cfg.Sampler.ReadTimeout.Duration)
	assert.Equal(t, SourcePsutil, cfg.Sampler.Source)

	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, 3, cfg.Breaker.MaxFailures)

	require.NoError(t, cfg.Validate(), "defaults must validate")
}

// TestDefaultConfig_CacheDirFollowsXDG verifies XDG_CACHE_HOME is honoured.
func TestDefaultConfig_CacheDirFollowsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "host-pulse"), DefaultConfig().General.CacheDir)
}

func TestLoadFromReader(t *testing.T) {
	clearEnv(t)
	input := `
[general]
log_level = "debug"

[sampler]
sample_interval_ms = 500
history_capacity = 120
disk_path = "/home"
read_timeout = "250ms"
source = "procfs"

[breaker]
enabled = false
`
	cfg, err := LoadFromReader(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.General.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampler.Interval())
	assert.Equal(t, 120, cfg.Sampler.HistoryCapacity)
	assert.Equal(t, 20, cfg.Sampler.ProcessListCap, "unset keys keep defaults")
	assert.Equal(t, "/home", cfg.Sampler.DiskPath)
	assert.Equal(t, 250*time.Millisecond, cfg.Sampler.ReadTimeout.Duration)
	assert.Equal(t, SourceProcfs, cfg.Sampler.Source)
	assert.False(t, cfg.Breaker.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromReader_Errors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"bad toml", "[sampler\n", "decode toml"},
		{"bad duration", "[sampler]\nread_timeout = \"soon\"\n", "invalid duration"},
		{"unknown key", "[sampler]\nhistory = 3\n", "unknown config key"},
		{"wrong type", "[sampler]\nhistory_capacity = \"lots\"\n", "decode toml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTPULSE_SAMPLE_INTERVAL_MS", "1000")
	t.Setenv("HOSTPULSE_HISTORY_CAPACITY", "60")
	t.Setenv("HOSTPULSE_PROCESS_LIST_CAP", "5")
	t.Setenv("HOSTPULSE_SOURCE", "mock")
	t.Setenv("HOSTPULSE_DISK_PATH", "/var")
	t.Setenv("HOSTPULSE_LOG_LEVEL", "warn")

	cfg, err := LoadFromReader(strings.NewReader("[sampler]\nhistory_capacity = 10\n"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Sampler.SampleIntervalMS)
	assert.Equal(t, 60, cfg.Sampler.HistoryCapacity, "env beats file")
	assert.Equal(t, 5, cfg.Sampler.ProcessListCap)
	assert.Equal(t, SourceMock, cfg.Sampler.Source)
	assert.Equal(t, "/var", cfg.Sampler.DiskPath)
	assert.Equal(t, "warn", cfg.General.LogLevel)
}

func TestEnvOverrides_Malformed(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOSTPULSE_HISTORY_CAPACITY", "thirty")
	t.Setenv("HOSTPULSE_PROCESS_LIST_CAP", "-")

	_, err := LoadFromReader(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOSTPULSE_HISTORY_CAPACITY")
	assert.Contains(t, err.Error(), "HOSTPULSE_PROCESS_LIST_CAP")
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[sampler]\nprocess_list_cap = 7\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Sampler.ProcessListCap)

	missing, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Sampler, missing.Sampler)
}

// TestLoad_SearchPath verifies Load picks up the XDG config file.
func TestLoad_SearchPath(t *testing.T) {
	clearEnv(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "host-pulse"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "host-pulse", "config.toml"),
		[]byte("[display]\nsparkline_width = 48\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.Display.SparklineWidth)
}

// TestEncode_RoundTrip verifies the encoded defaults load back unchanged.
func TestEncode_RoundTrip(t *testing.T) {
	clearEnv(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, DefaultConfig()))
	assert.Contains(t, buf.String(), `read_timeout = "1s"`)

	cfg, err := LoadFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"interval too short", func(c *Config) { c.Sampler.SampleIntervalMS = 50 }, "sample_interval_ms"},
		{"interval too long", func(c *Config) { c.Sampler.SampleIntervalMS = 3_600_001 }, "sample_interval_ms"},
		{"zero capacity", func(c *Config) { c.Sampler.HistoryCapacity = 0 }, "history_capacity"},
		{"huge capacity", func(c *Config) { c.Sampler.HistoryCapacity = 10001 }, "history_capacity"},
		{"zero cap", func(c *Config) { c.Sampler.ProcessListCap = 0 }, "process_list_cap"},
		{"no disk", func(c *Config) { c.Sampler.DiskPath = "" }, "disk_path"},
		{"bad source", func(c *Config) { c.Sampler.Source = "wmi" }, "sampler.source"},
		{"bad level", func(c *Config) { c.General.LogLevel = "loud" }, "log_level"},
		{"zero timeout", func(c *Config) { c.Sampler.ReadTimeout = Duration{} }, "read_timeout"},
		{"breaker failures", func(c *Config) { c.Breaker.MaxFailures = 0 }, "max_failures"},
		{"breaker backoff", func(c *Config) { c.Breaker.MaxResetTimeout = Duration{time.Second} }, "max_reset_timeout"},
		{"chart size", func(c *Config) { c.Display.ChartWidth = 10 }, "chart_width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

// TestValidate_ReportsAll verifies every problem is reported, not just the first.
func TestValidate_ReportsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sampler.HistoryCapacity = 0
	cfg.Sampler.ProcessListCap = 0
	cfg.General.LogLevel = "?"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"history_capacity", "process_list_cap", "log_level"} {
		assert.Contains(t, err.Error(), want)
	}
}

// TestValidate_BreakerDisabled verifies breaker settings are ignored when off.
func TestValidate_BreakerDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Breaker.Enabled = false
	cfg.Breaker.MaxFailures = 0
	assert.NoError(t, cfg.Validate())
}
