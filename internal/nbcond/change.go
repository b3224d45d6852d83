package nbcond

import (
	"sync"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

// ChangeTracker collects the change cells (`~= a`) that pulsed True
// during the current reaction cycle so the react loop can reset them to
// False strictly at the end of the cycle, rather than
// on the next external stimulus. Pass the same tracker to every NewChange
// call sharing one engine.
type ChangeTracker struct {
	mu      sync.Mutex
	pending []*nbcell.Cell
}

// NewChangeTracker creates an empty tracker.
func NewChangeTracker() *ChangeTracker {
	return &ChangeTracker{}
}

func (t *ChangeTracker) markPending(c *nbcell.Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, c)
}

// DrainResets resets every pulsed change cell back to False and clears
// the pending list. The react loop (internal/nbrule) calls this once
// both the cell alert queue and the action queue are empty.
func (t *ChangeTracker) DrainResets() {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, c := range pending {
		c.SetValue(nbobject.False)
	}
}

// NewChange builds `~= a`: emits a True pulse the cycle `a`'s value
// changes, then resets to False once ChangeTracker.DrainResets runs.
func NewChange(g *nbcell.Graph, tracker *ChangeTracker, watched *nbcell.Cell) *nbcell.Cell {
	var last *nbobject.Object
	var cell *nbcell.Cell

	eval := func(c *nbcell.Cell) *nbobject.Object {
		cur := watched.Value()
		if last == nil {
			last = cur
			return nbobject.False
		}
		if cur != last {
			last = cur
			tracker.markPending(cell)
			return nbobject.True
		}
		return c.Value()
	}

	cell = g.UseCondition("change", eval, watched)
	return cell
}

// FlipFlop builds the flip-flop condition cell: it toggles True on a
// rising pulse (non-True -> True transition) of set and toggles False on
// a rising pulse of reset, independent of the pulses' own steady-state
// truth value; simultaneous pulses leave the value unchanged.
func FlipFlop(g *nbcell.Graph, set, reset *nbcell.Cell) *nbcell.Cell {
	var lastSet, lastReset *nbobject.Object

	eval := func(c *nbcell.Cell) *nbobject.Object {
		s := c.Left.Value()
		r := c.Right.Value()

		setPulse := lastSet != nbobject.True && s == nbobject.True
		resetPulse := lastReset != nbobject.True && r == nbobject.True
		lastSet, lastReset = s, r

		switch {
		case setPulse && !resetPulse:
			return nbobject.True
		case resetPulse && !setPulse:
			return nbobject.False
		default:
			return c.Value()
		}
	}

	return g.UseCondition("flipflop", eval, set, reset)
}

// CaptureMonitor peeks at watched's value without subscribing into the
// normal alert-propagation path: it is a peek, not a dataflow child, so
// reading it never re-triggers a rule. It keeps no copy of the value;
// Sample reads watched afresh at call time.
type CaptureMonitor struct {
	watched *nbcell.Cell
}

// NewCaptureMonitor wraps watched for on-demand peeking.
func NewCaptureMonitor(watched *nbcell.Cell) *CaptureMonitor {
	return &CaptureMonitor{watched: watched}
}

// Sample returns watched's current value without subscribing the caller
// into watched's alert-propagation path.
func (m *CaptureMonitor) Sample() *nbobject.Object {
	return m.watched.Value()
}
