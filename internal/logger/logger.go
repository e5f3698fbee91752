// Package logger provides structured logging setup using slog.
package logger

import (
	"log/slog"
	"os"
)

// New creates the process logger. Runtime logs go to stderr so that
// stdout stays reserved for CLI command output.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
