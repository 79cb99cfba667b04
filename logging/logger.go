// Package logging builds the zerolog loggers used across StratumDB.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"StratumDB/config"
)

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenOutput resolves an output name: "stdout", "stderr" (the default) or a
// file path, which is opened for appending. The returned closer must be
// closed when the logger is no longer used.
func OpenOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nopCloser{}, nil
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open log output %s", output)
	}
	return f, f, nil
}

// NewWithWriter builds a logger writing to w in the configured format.
func NewWithWriter(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stderr && w != os.Stdout}
	}
	return zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// New builds a logger from cfg.
func New(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	w, closer, err := OpenOutput(cfg.Output)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	return NewWithWriter(cfg, w), closer, nil
}
