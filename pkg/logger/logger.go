package logger

import (
	"log/slog"
	"strings"
)

// New builds a logger from a textual level and a handler constructor,
// so binaries can pick the Cloud Run handler and tests the discard one.
func New(level string, handler func(level slog.Level) slog.Handler) *slog.Logger {
	h := handler(parseLevel(level))
	return slog.New(h)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
