// File: internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Creates the application logger. Logs go to stderr so that command output on stdout stays machine readable
func NewLogger(debug bool) *slog.Logger {
	return New(os.Stderr, debug)
}

func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(w, opts)

	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger
}
