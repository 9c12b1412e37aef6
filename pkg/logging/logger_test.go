package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sundarbanmap/pkg/config"
)

func withConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevConsole, prevLogger := Console, slog.Default()
	Console = &buf
	t.Cleanup(func() {
		Console = prevConsole
		slog.SetDefault(prevLogger)
	})
	return &buf
}

func TestInit_FileAndConsole(t *testing.T) {
	console := withConsole(t)
	logPath := filepath.Join(t.TempDir(), "logs", "sundarban.log")

	cleanup, err := Init(&config.LogSettings{Path: logPath, Level: "DEBUG"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	slog.Debug("debug detail", "dataset", "villages")
	slog.Info("converted", "dataset", "districts")
	cleanup()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if !strings.Contains(string(content), "debug detail") || !strings.Contains(string(content), "dataset=districts") {
		t.Errorf("log file missing records:\n%s", content)
	}
	if strings.Contains(console.String(), "debug detail") {
		t.Error("console should not receive DEBUG records")
	}
	if !strings.Contains(console.String(), "converted") {
		t.Error("console missing INFO record")
	}
}

func TestInit_Rotation(t *testing.T) {
	withConsole(t)
	logPath := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(logPath, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanup, err := Init(&config.LogSettings{Path: logPath, Level: "INFO"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	cleanup()

	old, err := os.ReadFile(logPath + ".old")
	if err != nil {
		t.Fatalf("expected rotated file: %v", err)
	}
	if string(old) != "previous run\n" {
		t.Errorf("unexpected rotated content %q", old)
	}
}

func TestInit_ConsoleOnly(t *testing.T) {
	console := withConsole(t)

	cleanup, err := Init(&config.LogSettings{Level: "WARN"})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer cleanup()

	slog.Info("quiet")
	slog.Warn("loud")
	if strings.Contains(console.String(), "quiet") {
		t.Error("INFO should be filtered at WARN level")
	}
	if !strings.Contains(console.String(), "loud") {
		t.Error("WARN record missing")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
