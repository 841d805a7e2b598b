package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pcmanager/internal/settings"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"Debug", slog.LevelDebug},
		{"trace", slog.LevelDebug},
		{"Info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"Error", slog.LevelError},
		{" critical ", slog.LevelError},
		{"", slog.LevelInfo},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNewDisabledLogsWarningsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, closer := New(settings.Default(), path)
	defer closer.Close()

	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be suppressed when logging is disabled")
	}
	if !logger.Enabled(ctx, slog.LevelWarn) {
		t.Error("warnings should still be reported")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("log file should not be created, stat err = %v", err)
	}
}

func TestNewEnabledWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cfg := settings.Default()
	cfg.EnableLogging = true
	cfg.LogLevel = "Debug"

	logger, closer := New(cfg, path)
	logger.Debug("scan finished", "files", 42)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "scan finished") || !strings.Contains(text, "files=42") {
		t.Errorf("unexpected log contents: %q", text)
	}
}

func TestNewEnabledAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	cfg := settings.Default()
	cfg.EnableLogging = true

	for _, msg := range []string{"first", "second"} {
		logger, closer := New(cfg, path)
		logger.Info(msg)
		closer.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
		t.Errorf("expected both entries, got %q", data)
	}
}

func TestNewFallsBackToStderr(t *testing.T) {
	// A regular file where the log directory should be makes MkdirAll fail.
	blocker := filepath.Join(t.TempDir(), "logs")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := settings.Default()
	cfg.EnableLogging = true
	cfg.LogLevel = "Error"

	logger, closer := New(cfg, filepath.Join(blocker, "app.log"))
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected a logger")
	}
	if logger.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("configured level should still apply on fallback")
	}
}
