// Package log centralizes slog setup and the structured field vocabulary
// shared by the binaries, so the same key always carries the same meaning
// across log lines.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process logger writing text to stdout and installs it as
// the slog default. LOG_LEVEL selects the level; unset or unknown means info.
func Setup() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: LevelFromEnv(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)
	return logger
}

// LevelFromEnv maps a LOG_LEVEL value to a slog level, defaulting to info.
func LevelFromEnv(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ForComponent tags a child logger with the component field.
func ForComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(FieldComponent, component)
}
