// ABOUTME: Tests for the logger package
// ABOUTME: Tests level parsing, file output and the no-op fallback
package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelMapping(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected zapcore.Level
	}{
		{DebugLevel, zapcore.DebugLevel},
		{InfoLevel, zapcore.InfoLevel},
		{WarnLevel, zapcore.WarnLevel},
		{ErrorLevel, zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := tt.level.zapLevel(); got != tt.expected {
			t.Errorf("%s: expected %v, got %v", tt.level, tt.expected, got)
		}
	}
}

func TestBuildWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lanes.log")

	log, err := build(Config{Level: InfoLevel, OutputPath: path})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	log.Info("clip added", String("clip", "c1"))
	log.Debug("hidden")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"clip":"c1"`) {
		t.Errorf("expected clip field in log, got %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Error("expected debug entry filtered at info level")
	}
}

func TestNoOutputsIsNop(t *testing.T) {
	log, err := build(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger")
	}
}

func TestLBeforeInit(t *testing.T) {
	if L() == nil {
		t.Fatal("expected non-nil logger")
	}
	Info("safe before init")
}
