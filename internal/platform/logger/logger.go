package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Level defaults to info;
// FOODBRIDGE_LOG_LEVEL=debug raises verbosity in development.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("FOODBRIDGE_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
