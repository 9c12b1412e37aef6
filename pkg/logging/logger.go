package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sundarbanmap/pkg/config"
)

// Console is where console log lines go. The conversion report owns stdout.
var Console io.Writer = os.Stderr

// Init installs the default slog logger. Console output is INFO and up; the
// optional log file gets everything at the configured level and the previous
// run's file is kept as <path>.old.
// It returns a cleanup function to close the log file.
func Init(cfg *config.LogSettings) (func(), error) {
	level := ParseLevel(cfg.Level)

	consoleHandler := slog.NewTextHandler(Console, &slog.HandlerOptions{
		Level: mathMaxLevel(level, slog.LevelInfo),
	})

	if cfg.Path == "" {
		slog.SetDefault(slog.New(consoleHandler))
		return func() {}, nil
	}

	rotatePaths(cfg.Path)

	fileHandler, file, err := setupFileHandler(cfg.Path, level)
	if err != nil {
		return nil, fmt.Errorf("failed to setup log file: %w", err)
	}
	slog.SetDefault(slog.New(&multiHandler{handlers: []slog.Handler{fileHandler, consoleHandler}}))

	return func() {
		file.Close()
	}, nil
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR to slog levels. Anything else is INFO.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupFileHandler(path string, level slog.Level) (slog.Handler, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	// Append mode, truncation handled by rotation in Init
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	return slog.NewTextHandler(file, opts), file, nil
}

func mathMaxLevel(a, b slog.Level) slog.Level {
	if a > b {
		return a
	}
	return b
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle implements slog.Handler
// nolint:gocritic // r must be passed by value to implement slog.Handler
func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		newHandlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

// rotatePaths renames existing log files to .old so each run starts fresh
// while the previous run's log is kept.
func rotatePaths(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			continue
		}

		if _, err := os.Stat(p); err == nil {
			oldPath := p + ".old"
			_ = os.Remove(oldPath)
			_ = os.Rename(p, oldPath)
		}
	}
}
