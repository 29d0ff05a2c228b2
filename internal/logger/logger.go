package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog.Logger tagged with the service and environment.
func New(service, environment, level string) zerolog.Logger {
	return NewWithWriter(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, service, environment, level)
}

func NewWithWriter(w io.Writer, service, environment, level string) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp().Str("service", service)
	if environment != "" {
		ctx = ctx.Str("environment", environment)
	}
	return ctx.Logger().Level(parseLevel(level))
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
