package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide slog logger. Production emits JSON with
// source locations for log aggregation; everything else defaults to readable
// text unless LOG_FORMAT forces JSON.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg != nil && cfg.IsProduction() {
		opts.AddSource = true
	}
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
