package nodebrain

import (
	"io"

	"github.com/trettevik/nodebrain/internal/nblog"
)

// LogLevel is the severity scale NodeBrain source text passes to the
// log() callback: nb_error through
// nb_debug, in ascending verbosity.
type LogLevel = nblog.Level

const (
	LevelError = nblog.LevelError
	LevelWarn  = nblog.LevelWarn
	LevelInfo  = nblog.LevelInfo
	LevelAudit = nblog.LevelAudit
	LevelTrace = nblog.LevelTrace
	LevelDebug = nblog.LevelDebug
)

// LogSink is the engine's log(level, message) callback.
type LogSink = nblog.Sink

// NewLogSink wraps w (typically os.Stdout) in a zerolog-backed LogSink.
func NewLogSink(w io.Writer) LogSink { return nblog.New(w) }

// NewDefaultLogSink returns a LogSink writing to os.Stderr, the
// engine's default when no explicit sink is configured.
func NewDefaultLogSink() LogSink { return nblog.NewDefault() }

// NewNopLogSink returns a LogSink that discards every record, useful in
// tests that don't care about diagnostics.
func NewNopLogSink() LogSink { return nblog.NewNop() }
