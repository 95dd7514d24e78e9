// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup(cfg.LogLevel, "server")   // level from config, tagged with the binary name
//	logging.SetupWithLevel(slog.LevelDebug) // explicit level override
//
// Levels: debug, info, warn, error (default: info).
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures colored logging at the named level. A non-empty
// component is attached to every record as "component".
func Setup(level, component string) {
	handler := newHandler(ParseLevel(level))
	if component != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("component", component)})
	}
	slog.SetDefault(slog.New(handler))
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) {
	slog.SetDefault(slog.New(newHandler(level)))
}

func newHandler(level slog.Level) slog.Handler {
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  true,
	})
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values are INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
