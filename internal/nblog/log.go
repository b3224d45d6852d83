// Package nblog implements the engine's log(level, message) callback
// on top of zerolog rather than the standard library's log package.
package nblog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level mirrors the severity scale NodeBrain source text can pass to the
// log() callback: nb_error through nb_debug, in ascending verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelAudit
	LevelTrace
	LevelDebug
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelInfo, LevelAudit:
		return zerolog.InfoLevel
	case LevelTrace, LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// Sink is the engine's log(level, message) callback. A nil Sink is never
// passed to engine code; NewNop returns a safe default so the cell graph
// and rule scheduler never need a nil check before logging.
type Sink interface {
	Log(level Level, message string, fields map[string]any)
}

// zerologSink is the default Sink, writing structured records through a
// zerolog.Logger.
type zerologSink struct {
	logger zerolog.Logger
}

// New wraps w (typically os.Stdout) in a zerolog-backed Sink.
func New(w io.Writer) Sink {
	return &zerologSink{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// NewDefault returns a Sink writing to os.Stderr, the engine's default
// when no explicit sink is configured.
func NewDefault() Sink {
	return New(os.Stderr)
}

func (s *zerologSink) Log(level Level, message string, fields map[string]any) {
	ev := s.logger.WithLevel(level.zerolog())
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}

// nopSink discards everything. It is the zero-dependency default so core
// packages (nbcell, nbrule, nbtime) never require an initialized logger.
type nopSink struct{}

// NewNop returns a Sink that discards all log records.
func NewNop() Sink { return nopSink{} }

func (nopSink) Log(Level, string, map[string]any) {}
