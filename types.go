// Package nodebrain is a declarative rule interpreter for event and
// state monitoring: source text compiles into a demand-driven
// publish/subscribe cell graph over three-valued logic, on/when/if
// rules fire a priority action queue, and a time-condition engine
// drives calendar-based and delay-based scheduling. This file
// re-exports the internal packages' core vocabulary into the public
// surface, so callers never need to import internal/nbcell,
// internal/nbobject, internal/nbrule, internal/nbtime or internal/nbcond
// directly.
package nodebrain

import (
	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbcond"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbrule"
	"github.com/trettevik/nodebrain/internal/nbtime"
)

// Cell is a node in the dataflow graph: a leaf storing an
// externally assigned value, or a condition recomputing its value from
// its children whenever one of them changes.
type Cell = nbcell.Cell

// Term is a named binding in the context tree: dotted
// paths like "a.b.c" resolve by walking child terms from the engine's
// root.
type Term = nbcell.Term

// Object is a single interned value flowing through the cell graph:
// True, False, Unknown, Disabled, Placeholder, or a typed string/real
// scalar.
type Object = nbobject.Object

// Well-known Object singletons, re-exported so callers assembling
// Assertions or comparing a Subscriber's value don't need to import
// internal/nbobject directly.
var (
	True        = nbobject.True
	False       = nbobject.False
	Unknown     = nbobject.Unknown
	Disabled    = nbobject.Disabled
	Placeholder = nbobject.Placeholder
)

// Real interns v as a numeric Object.
func Real(v float64) *Object { return nbobject.Real(v) }

// Str interns s as a string Object.
func Str(s string) *Object { return nbobject.String(s) }

// Rule is a condition cell paired with an Action.
type Rule = nbrule.Rule

// Kind distinguishes the three rule flavours: on, when and if.
type Kind = nbrule.Kind

const (
	KindOn   = nbrule.KindOn
	KindWhen = nbrule.KindWhen
	KindIf   = nbrule.KindIf
)

// Assertion is one entry of a rule's assertion list: a term and the
// cell supplying its new value.
type Assertion = nbrule.Assertion

// ActionStatus is the firing state machine an Action moves through:
// Ready -> Scheduled -> Processing -> Ash -> Ready (or Delete); Error
// marks a suppressed double-fire.
type ActionStatus = nbrule.Status

const (
	StatusReady      = nbrule.StatusReady
	StatusScheduled  = nbrule.StatusScheduled
	StatusProcessing = nbrule.StatusProcessing
	StatusAsh        = nbrule.StatusAsh
	StatusDelete     = nbrule.StatusDelete
	StatusError      = nbrule.StatusError
)

// CycleStats reports what happened during one Tick call: cells evaluated and actions fired.
type CycleStats = nbrule.CycleStats

// CommandSink executes an action's command string. The core engine
// never performs I/O itself; callers provide a Sink implementation (see
// OSCommandSink) to wire rule commands to the operating system, a
// message bus, or a test double.
type CommandSink = nbrule.CommandSink

// TimeExpr is a compiled `~(…)` time-expression tree: it
// casts to a BFI interval set over any [begin, end) wall-clock window.
type TimeExpr = nbtime.Expr

// BFI is a normalized set of disjoint, closed-open wall-clock intervals.
type BFI = nbtime.BFI

// Interval is one closed-open wall-clock range of a BFI.
type Interval = nbtime.Interval

// RelOp identifies a relational operator (=, <>, <, <=, >, >=).
type RelOp = nbcond.RelOp

const (
	Eq = nbcond.Eq
	Ne = nbcond.Ne
	Lt = nbcond.Lt
	Le = nbcond.Le
	Gt = nbcond.Gt
	Ge = nbcond.Ge
)
