// Package logger wraps zerolog for the secretseal command.
package logger

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// New returns a JSON logger writing to w with a "role" field and
// timestamps. Unknown level names fall back to info.
func New(role string, w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	l := zerolog.New(w).Level(lvl).With().
		Str("role", role).
		Timestamp().
		Logger()
	return &Logger{l}
}
