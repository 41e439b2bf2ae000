// Package logging sets up the zerolog logger and carries request IDs and
// request-scoped loggers through contexts.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logger type used across the service.
type Logger = zerolog.Logger

// New builds the root logger. The local environment gets a human readable
// console writer, everything else logs JSON to stdout.
func New(env, level string) Logger {
	var out io.Writer = os.Stdout
	if env == "" || env == "local" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Nop returns a disabled logger, for tests and optional dependencies.
func Nop() Logger {
	return zerolog.Nop()
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext returns the request-scoped logger, tagged with the request ID
// when one is present. Falls back to a disabled logger.
func FromContext(ctx context.Context) *Logger {
	l := zerolog.Ctx(ctx)
	if id := GetRequestID(ctx); id != "" {
		tagged := l.With().Str("request_id", id).Logger()
		return &tagged
	}
	return l
}
