// Package logging configures the process-wide slog logger from settings.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pcmanager/internal/appdir"
	"pcmanager/internal/settings"
)

// DefaultPath is where the log file lives when logging is enabled.
func DefaultPath() string {
	return appdir.File("logs", "app.log")
}

// ParseLevel maps a settings log level name to a slog level. Unknown names
// fall back to Info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "trace", "verbose":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal", "critical":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger for cfg. With logging enabled it appends to path at
// the configured level; otherwise, or if the file cannot be opened, it
// writes warnings and errors to stderr. The returned closer releases the
// log file.
func New(cfg settings.Settings, path string) (*slog.Logger, io.Closer) {
	if !cfg.EnableLogging {
		return newLogger(os.Stderr, slog.LevelWarn), nopCloser{}
	}

	level := ParseLevel(cfg.LogLevel)
	f, err := openLogFile(path)
	if err != nil {
		logger := newLogger(os.Stderr, level)
		logger.Warn("failed to open log file, logging to stderr", "path", path, "error", err)
		return logger, nopCloser{}
	}
	return newLogger(f, level), f
}

// Setup installs the logger for cfg as the slog default.
func Setup(cfg settings.Settings) io.Closer {
	logger, closer := New(cfg, DefaultPath())
	slog.SetDefault(logger)
	return closer
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
