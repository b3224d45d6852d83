package nbtime

import (
	"time"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbtimer"
)

// Clock supplies the wall-clock reading a ScheduleCell casts and arms
// against.
type Clock func() time.Time

// ScheduleCell is a compiled time expression's live cell: its value
// toggles between True and False as wall-clock time crosses the
// interval boundaries of Expr, and it
// maintains a cached BFI over [now, horizon) that is replaced — never
// extended — whenever the cache runs out of future edges, keeping
// casting idempotent.
type ScheduleCell struct {
	Cell *nbcell.Cell

	expr       Expr
	horizon    time.Duration
	maxHorizon time.Duration
	clock      Clock
	dispatcher *nbtimer.Dispatcher
	graph      *nbcell.Graph

	cur   BFI
	begin time.Time
	end   time.Time

	// stopped marks a schedule whose horizon doubling has hit maxHorizon
	// without finding a future edge.
	stopped bool
}

// defaultMaxHorizon bounds how far the doubling strategy will expand
// before giving up and flagging the schedule Stopped.
const defaultMaxHorizon = 100 * 365 * 24 * time.Hour

// NewScheduleCell compiles expr into a live schedule cell, casting an
// initial horizon window and arming the first wall-clock alarm.
// dispatcher may be nil, in which case the cell still reflects its
// current-instant truth value but never re-evaluates on its own — tests
// exercising only the BFI algebra can use this to avoid spinning up a
// timer goroutine.
func NewScheduleCell(g *nbcell.Graph, dispatcher *nbtimer.Dispatcher, clock Clock, expr Expr, horizon time.Duration) *ScheduleCell {
	if clock == nil {
		clock = time.Now
	}
	if horizon <= 0 {
		horizon = 24 * time.Hour
	}
	sc := &ScheduleCell{
		expr:       expr,
		horizon:    horizon,
		maxHorizon: defaultMaxHorizon,
		clock:      clock,
		dispatcher: dispatcher,
		graph:      g,
	}
	sc.Cell = nbcell.NewLeaf("schedule", nbobject.Unknown)
	sc.Cell.OnTimer = func(*nbcell.Cell) { sc.Fire() }
	now := clock()
	sc.recast(now)
	sc.Cell.SetValue(nbobject.Bool(sc.cur.Contains(now)))
	if dispatcher != nil {
		sc.armNext()
	}
	return sc
}

// recast replaces (not extends) the cached interval set over
// [now, now+horizon), keeping Contains/NextBoundaryAfter queries
// idempotent regardless of how many times recast runs.
func (sc *ScheduleCell) recast(now time.Time) {
	sc.begin = now
	sc.end = now.Add(sc.horizon)
	sc.cur = sc.expr.Cast(sc.begin, sc.end)
}

// armNext arms the dispatcher for the next interval boundary (start of
// next true interval, or end of the current one). If the cached horizon
// has no further edge, the horizon is doubled and the expression recast
// before trying again; if that still finds nothing within maxHorizon,
// the schedule stops advancing and is flagged Stopped.
func (sc *ScheduleCell) armNext() {
	now := sc.clock()
	for {
		if next, ok := sc.cur.NextBoundaryAfter(now); ok {
			sc.dispatcher.Arm(sc.Cell, next)
			return
		}
		if sc.horizon >= sc.maxHorizon {
			sc.stopped = true
			return
		}
		sc.horizon *= 2
		if sc.horizon > sc.maxHorizon {
			sc.horizon = sc.maxHorizon
		}
		sc.recast(now)
	}
}

// Fire is invoked (via the dispatcher's Deliver callback, marshaled onto
// the engine thread) when this cell's armed alarm goes off: it flips the
// value if the boundary crossing changed truth, alerts subscribers, and
// arms the next boundary.
func (sc *ScheduleCell) Fire() {
	now := sc.clock()
	if now.After(sc.end) {
		sc.recast(now)
	}
	newVal := nbobject.Bool(sc.cur.Contains(now))
	if sc.Cell.SetValue(newVal) {
		sc.graph.Alert(sc.Cell)
	}
	if sc.dispatcher != nil {
		sc.armNext()
	}
}

// Stopped reports whether horizon expansion has been abandoned without
// finding a future edge.
func (sc *ScheduleCell) Stopped() bool { return sc.stopped }
