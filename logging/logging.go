// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return l, nil
}

// New builds a logger writing JSON or text to w.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Setup sets slog's default logger to write to stdout. An unknown level
// falls back to info and is reported.
func Setup(level, format string) *slog.Logger {
	l, err := ParseLevel(level)
	logger := New(os.Stdout, l, format)
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("using info level", "error", err)
	}
	return logger
}
