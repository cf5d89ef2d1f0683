// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup initializes and configures the application's logging system.
// It creates a structured JSON logger writing to stdout with the given log
// level and sets it as the default logger for the application.
//
// An invalid level falls back to info with a warning rather than failing
// startup.
func Setup(logLevel string) *slog.Logger {
	return setup(logLevel, os.Stdout)
}

// setup is the testable core of Setup, writing to the given sink.
func setup(logLevel string, out io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo

		tmpLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmpLogger.Warn("invalid log level configured, using default level",
			"configured_level", logLevel,
			"default_level", "info")
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(out, opts)
	log := slog.New(handler)

	// Set as default so package-level slog helpers share the same handler.
	slog.SetDefault(log)

	return log
}
