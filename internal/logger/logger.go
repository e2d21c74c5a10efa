// Package logger builds the zerolog logger the command line tools use.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Debug lowers the level to debug. Otherwise only warnings and errors
	// are written.
	Debug bool

	// Writer receives the log output. Defaults to os.Stderr so that log
	// lines never mix with the status line on stdout.
	Writer io.Writer

	// JSON writes raw JSON events instead of the console format.
	JSON bool
}

// New creates a logger from opts.
func New(opts Options) zerolog.Logger {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    true,
		}
	}

	level := zerolog.WarnLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
