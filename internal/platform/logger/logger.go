package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Text output to stdout keeps
// local development readable; the log shipper handles parsing in deployment.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
