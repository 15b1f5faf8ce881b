// Package logging configures structured logging with a colored tint handler.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a slog.Logger writing tinted output to stderr at the level given
// by the LOG_LEVEL environment variable (default: info).
func New() *slog.Logger {
	return NewWithLevel(levelFromEnv())
}

// NewWithLevel returns a slog.Logger at the given level.
func NewWithLevel(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
