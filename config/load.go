package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
)

const appName = "host-pulse"

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/host-pulse/config.toml
//  2. ~/.config/host-pulse/config.toml
//
// If no file exists, returns DefaultConfig() with environment overrides.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path. A missing
// file yields the defaults.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, errors.WrapIf(err, "open config")
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, errors.WrapIff(err, "load %s", path)
	}
	return cfg, nil
}

// LoadFromReader reads configuration from an io.Reader. Keys not present
// keep their defaults; unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errors.WrapIf(err, "decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("unknown config key %q", undecoded[0].String())
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	return errors.WrapIf(toml.NewEncoder(w).Encode(cfg), "encode toml")
}

// DefaultConfig returns the default configuration: a 2s cadence, 30 samples
// of history and a 20-entry process list.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
			CacheDir: filepath.Join(xdgCacheHome(home), appName),
		},
		Sampler: SamplerConfig{
			SampleIntervalMS: 2000,
			HistoryCapacity:  30,
			ProcessListCap:   20,
			DiskPath:         "/",
			ReadTimeout:      Duration{time.Second},
			Source:           SourcePsutil,
		},
		Breaker: BreakerConfig{
			Enabled:         true,
			MaxFailures:     3,
			ResetTimeout:    Duration{30 * time.Second},
			MaxResetTimeout: Duration{5 * time.Minute},
		},
		Display: DisplayConfig{
			SparklineWidth: 30,
			ChartWidth:     960,
			ChartHeight:    540,
		},
	}
}

// applyEnvOverrides checks HOSTPULSE_* environment variables and overrides
// config values. Malformed numbers are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	envInt := func(name string, dst *int) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, errors.Errorf("%s: %q is not an integer", name, v))
			return
		}
		*dst = n
	}
	envString := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	envInt("HOSTPULSE_SAMPLE_INTERVAL_MS", &cfg.Sampler.SampleIntervalMS)
	envInt("HOSTPULSE_HISTORY_CAPACITY", &cfg.Sampler.HistoryCapacity)
	envInt("HOSTPULSE_PROCESS_LIST_CAP", &cfg.Sampler.ProcessListCap)
	envString("HOSTPULSE_SOURCE", &cfg.Sampler.Source)
	envString("HOSTPULSE_DISK_PATH", &cfg.Sampler.DiskPath)
	envString("HOSTPULSE_LOG_LEVEL", &cfg.General.LogLevel)
	envString("HOSTPULSE_LOG_FILE", &cfg.General.LogFile)
	envString("HOSTPULSE_CACHE_DIR", &cfg.General.CacheDir)

	return errors.Combine(errs...)
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, appName, "config.toml"))

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, appName, "config.toml"))
	}
	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgCacheHome returns XDG_CACHE_HOME or ~/.cache as fallback.
func xdgCacheHome(home string) string {
	if v := os.Getenv("XDG_CACHE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".cache")
}
