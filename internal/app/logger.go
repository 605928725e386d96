package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. Production deployments run
// with LOG_FORMAT=json so the workflow audit trail stays machine-parseable;
// anything else falls back to the text handler for local work.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
