package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Service string
	Level   string
	// File, when set, receives a copy of every record with size-based rotation.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stderr moves console output off stdout, which stdio protocols own.
	Stderr bool
}

// New builds a JSON logger writing to stdout and, optionally, a rotated file.
// The returned closer flushes and closes the file sink.
func New(opts Options) (*slog.Logger, io.Closer) {
	var console io.Writer = os.Stdout
	if opts.Stderr {
		console = os.Stderr
	}
	out := console
	var closer io.Closer = nopCloser{}

	if strings.TrimSpace(opts.File) != "" {
		_ = os.MkdirAll(filepath.Dir(opts.File), 0o755)
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    valueOr(opts.MaxSizeMB, 50),
			MaxBackups: valueOr(opts.MaxBackups, 5),
			MaxAge:     valueOr(opts.MaxAgeDays, 14),
			Compress:   true,
		}
		out = io.MultiWriter(console, file)
		closer = file
	}

	return newWithWriter(out, opts.Service, opts.Level), closer
}

func newWithWriter(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func valueOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
