// Package logging builds the zerolog logger used by the spikeview commands.
package logging

import (
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrLevel is returned for an unrecognized log level name.
var ErrLevel = errors.New("invalid log level")

// ParseLevel maps a settings value to a zerolog level.
//
// Accepted names are debug, verbose (or verb, trace), info (or notice),
// warning (or warn), error, and quiet (or silent).
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "verbose", "verb", "trace":
		return zerolog.TraceLevel, nil
	case "", "notice", "info":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "quiet", "silent":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, errors.Wrapf(ErrLevel, "%q", name)
	}
}

// New returns a console logger writing to w at the named level. Every
// entry carries a "run" field unique to this logger.
func New(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
		cw.Out = w
		cw.TimeFormat = "15:04:05.000"
		cw.NoColor = !isTerminal(w)
	})

	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("run", uuid.New().String()[:8]).
		Logger(), nil
}

// NewJSON returns a JSON logger writing to w, for when output is piped to
// a collector.
func NewJSON(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("run", uuid.New().String()).
		Logger(), nil
}
