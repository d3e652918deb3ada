package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesToDataDir(t *testing.T) {
	dir := t.TempDir()
	original := Logger
	defer func() {
		Close()
		Logger = original
	}()

	if err := Setup(dir, "debug"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	Info("scan complete", "files", 3)
	Debug("watch event", "path", "/tmp/rollout.jsonl")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "scan complete") || !strings.Contains(out, "files=3") {
		t.Errorf("info record missing from log file:\n%s", out)
	}
	if !strings.Contains(out, "watch event") {
		t.Errorf("debug record missing at debug level:\n%s", out)
	}
}

func TestSetupLevelFiltersRecords(t *testing.T) {
	dir := t.TempDir()
	original := Logger
	defer func() {
		Close()
		Logger = original
	}()

	if err := Setup(dir, "warn"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	Info("below threshold")
	Warn("sync slow", "source", "build box")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "below threshold") {
		t.Errorf("info record should be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "sync slow") {
		t.Errorf("warn record missing:\n%s", out)
	}
}

func TestSetupCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	original := Logger
	defer func() {
		Close()
		Logger = original
	}()

	if err := Setup(dir, "info"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{" Debug ", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLoggerDiscards(t *testing.T) {
	if Logger == nil {
		t.Fatal("Logger should be initialized before Setup")
	}
	// Must not panic without Setup.
	Info("pre-setup record")
}
