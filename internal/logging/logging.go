// Package logging builds the zerolog logger used across the proxy.
//
// Console output goes to stdout in a human readable form; "json" switches
// to one JSON object per line for log shippers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New creates a logger writing to w at the given level and format.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "", "console":
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.DateTime,
			NoColor:    os.Getenv("NO_COLOR") != "" || !isTerminal(w),
		}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("log format %q: want console or json", format)
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	if lvl <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
