// Package logger builds the zerolog loggers used by the CLI.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New creates a logger writing to w at the named level. Unknown level names
// fall back to info. pretty selects the human-readable console format.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// WithRun tags every event with the run id.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}
