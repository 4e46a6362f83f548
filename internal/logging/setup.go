package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a config level name to an slog.Level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// New builds the process logger: a text or JSON handler at the given level,
// wrapped with correlation ID injection.
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var inner slog.Handler
	if json {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewCorrelationHandler(inner))
}

// WithModule tags a logger with the component that owns it.
func WithModule(logger *slog.Logger, module string) *slog.Logger {
	return logger.With(slog.String("module", module))
}
