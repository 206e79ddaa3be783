package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns the process logger. Debug mode writes human readable lines at
// debug level, otherwise JSON lines at info level.
func New(w io.Writer, debug bool) zerolog.Logger {
	if debug {
		return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}
