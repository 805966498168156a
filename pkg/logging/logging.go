package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing to stdout. Debug mode switches to
// human readable console output.
func New(level string, debug bool) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, debug)
}

func NewWithWriter(w io.Writer, level string, debug bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}
