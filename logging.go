package busalerts

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger. Text format on
// stdout; the service runs under a supervisor that handles log shipping.
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
