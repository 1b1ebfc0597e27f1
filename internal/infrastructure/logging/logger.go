// Package logging provides structured logging utilities.
//
// Text logs are formatted in Maven-style with colors:
// [LEVEL] [STAGE] [HH:MM:SS] message key=value
package logging

import (
	"log/slog"
	"os"

	"github.com/venueops/tktsrecon/internal/infrastructure/config"
)

// NewLogger creates a structured logger based on config.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = NewMavenHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// NewLoggerForStage returns a child of logger scoped to a pipeline stage
// (e.g. "intake", "enrich", "cascade", "report"). The stage shows up as a
// bracket tag in text output and as a plain attribute in JSON output.
func NewLoggerForStage(logger *slog.Logger, stage string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("stage", stage)
}
