// Package logger builds the zerolog loggers shared by every component.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a JSON logger on stdout tagged with the service name.
func New(level, service string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, service)
}

// NewConsole returns a human-readable logger on stderr for interactive commands.
func NewConsole(level, service string) zerolog.Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, level, service)
}

func NewWithWriter(w io.Writer, level, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger().
		Level(ParseLevel(level))
}
