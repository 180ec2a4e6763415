package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"gitlab.com/tinyland/lab/host-pulse/collectors"
)

// writeTestConfig writes a config that keeps the cache inside the test's
// temp dir and samples quickly.
func writeTestConfig(t *testing.T) (path, cacheDir string) {
	t.Helper()
	dir := t.TempDir()
	cacheDir = filepath.Join(dir, "cache")
	path = filepath.Join(dir, "config.toml")
	content := `
[general]
log_level = "error"
cache_dir = "` + cacheDir + `"

[sampler]
sample_interval_ms = 100
source = "mock"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, cacheDir
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "host-pulse "+version) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-no-such-flag"}, &stdout, &stderr); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestRun_PrintConfig(t *testing.T) {
	path, cacheDir := writeTestConfig(t)
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", path, "-print-config"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d (stderr %q)", code, stderr.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "sample_interval_ms = 100") {
		t.Errorf("output missing interval: %q", out)
	}
	if !strings.Contains(out, cacheDir) {
		t.Errorf("output missing cache dir: %q", out)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[sampler]\nhistory_capacity = 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", path}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "history_capacity") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRun_OnceJSON(t *testing.T) {
	path, _ := writeTestConfig(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"-config", path, "-once", "-format", "json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d (stderr %q)", code, stderr.String())
	}
	var snap collectors.Snapshot
	if err := json.Unmarshal(stdout.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, stdout.String())
	}
	if snap.Source != "mock" || snap.Seq != 1 {
		t.Errorf("snapshot = source %q seq %d", snap.Source, snap.Seq)
	}
	if snap.Processes.Limit != 20 {
		t.Errorf("process limit = %d, want 20", snap.Processes.Limit)
	}
}

func TestRun_HealthWithoutDaemon(t *testing.T) {
	path, _ := writeTestConfig(t)
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", path, "-health"}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRun_PNG(t *testing.T) {
	path, _ := writeTestConfig(t)
	out := filepath.Join(t.TempDir(), "chart.png")
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", path, "-png", out}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d (stderr %q)", code, stderr.String())
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat chart: %v", err)
	}
	if info.Size() == 0 {
		t.Error("chart is empty")
	}
}

func TestRun_Man(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-man"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), ".TH HOST-PULSE 1") {
		t.Errorf("stdout = %q", stdout.String()[:40])
	}
}

func TestRun_Inline(t *testing.T) {
	path, _ := writeTestConfig(t)
	t.Setenv("COLUMNS", "60")
	t.Setenv("LINES", "20")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-config", path, "-inline", "-protocol", "unicode"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d (stderr %q)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "▀") {
		t.Error("inline output has no half-block cells")
	}
}

func TestRun_InlineBadProtocol(t *testing.T) {
	path, _ := writeTestConfig(t)
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-config", path, "-inline", "-protocol", "sixel"}, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "unknown protocol") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
