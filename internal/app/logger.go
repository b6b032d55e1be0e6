package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production always emits JSON for log
// shipping regardless of LOG_FORMAT; development defaults to text with source
// locations and debug level.
func NewLogger(cfg *Config) *slog.Logger {
	if cfg != nil && (cfg.IsProduction() || cfg.LogFormat == "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))
}
