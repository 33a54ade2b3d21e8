package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the configured slog.Logger. Every line carries the
// service attribute so the API and worker binaries are distinguishable
// from each other in shared log streams.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "harborstay"))
}
