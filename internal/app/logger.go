package app

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates a zerolog logger writing to w. Any format other than
// "json" is rendered for the console.
func NewLogger(w io.Writer, level zerolog.Level, format string) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}
