// Package logger provides a thin wrapper around zerolog.Logger used by
// credvault for diagnostic output.
//
// Diagnostics go to stderr so that stdout stays reserved for command output
// (secret values, listings, completion scripts). Secret values and master
// passphrases must never be passed to a logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level is configured or the configured one is
// not recognised.
const DefaultLevel = zerolog.WarnLevel

// Logger is a thin wrapper around zerolog.Logger.
// Embedding zerolog.Logger exposes the full zerolog API.
type Logger struct {
	zerolog.Logger
}

// NewLogger builds a human-readable logger writing to stderr at the given
// level ("debug", "info", "warn", ...).
func NewLogger(level string) *Logger {
	return NewWithWriter(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}, level)
}

// NewWithWriter builds a logger writing to w. Unknown levels fall back to
// DefaultLevel.
func NewWithWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = DefaultLevel
	}

	logger := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("app", "credvault").
		Logger()

	return &Logger{logger}
}

// Nop returns a *Logger that discards all log output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// Component returns a child logger tagged with a component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{l.With().Str("component", name).Logger()}
}
