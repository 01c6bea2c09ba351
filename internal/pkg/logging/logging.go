package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup installs the global slog logger writing to stdout. Every record
// carries a "service" attribute.
func Setup(service, level, format string) {
	slog.SetDefault(New(os.Stdout, service, level, format))
}

// New builds a logger. level may be "debug", "info", "warn", or "error"
// (default "info"); format may be "json" or "text" (default "json").
func New(w io.Writer, service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	if service != "" {
		logger = logger.With("service", service)
	}
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
