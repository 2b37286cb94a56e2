package lmdbstore

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Logger interface {
	// Debug logs a message at the debug level with context key/value pairs
	Debug(msg string, ctx ...any)

	// Info logs a message at the info level with context key/value pairs
	Info(msg string, ctx ...any)

	// Warn logs a message at the warn level with context key/value pairs
	Warn(msg string, ctx ...any)

	// Error logs a message at the error level with context key/value pairs
	Error(msg string, ctx ...any)
}

// NewZerologLogger adapts a zerolog.Logger to the Logger interface.
// The ctx arguments are interpreted as alternating key/value pairs.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{l: l}
}

type zerologLogger struct {
	l zerolog.Logger
}

func (z *zerologLogger) Debug(msg string, ctx ...any) { z.l.Debug().Fields(ctx).Msg(msg) }
func (z *zerologLogger) Info(msg string, ctx ...any)  { z.l.Info().Fields(ctx).Msg(msg) }
func (z *zerologLogger) Warn(msg string, ctx ...any)  { z.l.Warn().Fields(ctx).Msg(msg) }
func (z *zerologLogger) Error(msg string, ctx ...any) { z.l.Error().Fields(ctx).Msg(msg) }

func defaultLogger() Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, TimeFormat: time.RFC3339}
	l := zerolog.New(cw).
		Level(zerolog.WarnLevel).
		With().Timestamp().Str("component", "lmdbstore").Logger()
	return NewZerologLogger(l)
}
