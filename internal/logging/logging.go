package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. Production environments log JSON,
// everything else logs text.
func NewLogger(levelStr, appEnv string) *slog.Logger {
	return New(os.Stdout, levelStr, appEnv)
}

// New builds a logger writing to w.
func New(w io.Writer, levelStr, appEnv string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(levelStr)}

	var handler slog.Handler
	if strings.EqualFold(appEnv, "production") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "bakery-chat")
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(levelStr string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
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
