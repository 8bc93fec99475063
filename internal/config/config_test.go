// ABOUTME: Tests for configuration loading
// ABOUTME: Tests defaults, overrides and malformed values
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.TickInterval != 20*time.Millisecond {
		t.Errorf("expected 20ms tick, got %v", cfg.TickInterval)
	}
	if cfg.MinSession != 60 {
		t.Errorf("expected 60s minimum, got %v", cfg.MinSession)
	}
	if cfg.PixelsPerSecond != 100 || cfg.SnapSeconds != 0.5 {
		t.Errorf("unexpected placement defaults %v/%v", cfg.PixelsPerSecond, cfg.SnapSeconds)
	}
	if cfg.Port != 8937 || !cfg.MDNS {
		t.Errorf("unexpected server defaults %d/%v", cfg.Port, cfg.MDNS)
	}
	if cfg.RecordDir != "recordings" {
		t.Errorf("expected recordings dir, got %s", cfg.RecordDir)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("LANES_TICK_MS", "10")
	t.Setenv("LANES_SNAP_SECONDS", "0.25")
	t.Setenv("LANES_MDNS", "false")
	t.Setenv("LANES_PORT", "not-a-number")

	cfg := FromEnv()
	if cfg.TickInterval != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", cfg.TickInterval)
	}
	if cfg.SnapSeconds != 0.25 {
		t.Errorf("expected 0.25, got %v", cfg.SnapSeconds)
	}
	if cfg.MDNS {
		t.Error("expected mDNS disabled")
	}
	if cfg.Port != 8937 {
		t.Errorf("expected fallback port for malformed value, got %d", cfg.Port)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("LANES_INGEST_DIR=/tmp/drop\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	// restores the variable after the test
	t.Setenv("LANES_INGEST_DIR", "")
	os.Unsetenv("LANES_INGEST_DIR")

	cfg := Load()
	if !cfg.EnvFileLoaded {
		t.Error("expected .env to be loaded")
	}
	if cfg.IngestDir != "/tmp/drop" {
		t.Errorf("expected ingest dir from .env, got %q", cfg.IngestDir)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
