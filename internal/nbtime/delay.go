package nbtime

import (
	"fmt"
	"time"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbtimer"
)

// DelayCell implements the `~^(…)`/`~^!(…)`/`~^?(…)` delay operators:
// the held value is True/False/Unknown for a fixed duration starting at
// a qualifying transition of the watched operand. On each qualifying
// rising edge (a transition into value) it arms a one-shot timer for
// duration and holds value; any counter-edge before the timer fires
// cancels it and reverts to False immediately, matching the left
// operand's own reversion rather than waiting out the duration.
//
// Duration is fixed at construction rather than re-evaluated from a
// right-hand schedule expression per edge — a deliberate simplification
// recorded in DESIGN.md.
type DelayCell struct {
	Cell *nbcell.Cell

	value      *nbobject.Object
	duration   time.Duration
	dispatcher *nbtimer.Dispatcher
	graph      *nbcell.Graph
	armed      bool
	last       *nbobject.Object
}

// NewDelayCell wires a delay operator holding value for duration after
// each qualifying edge of watched, armed via dispatcher. dispatcher may
// be nil, in which case the delay still detects edges but never fires.
func NewDelayCell(g *nbcell.Graph, dispatcher *nbtimer.Dispatcher, watched *nbcell.Cell, value *nbobject.Object, duration time.Duration) *DelayCell {
	d := &DelayCell{value: value, duration: duration, dispatcher: dispatcher, graph: g}

	eval := func(c *nbcell.Cell) *nbobject.Object {
		cur := watched.Value()
		old := d.last
		d.last = cur
		switch {
		case old == nil:
			// The construction-time read establishes a baseline only; it
			// is not itself a transition.
			return nbobject.False
		case cur == d.value && old != d.value:
			d.armed = true
			if d.dispatcher != nil {
				d.dispatcher.ArmDuration(c, d.duration)
			}
			return d.value
		case cur != d.value && d.armed:
			d.armed = false
			if d.dispatcher != nil {
				d.dispatcher.Cancel(c)
			}
			return nbobject.False
		default:
			return c.Value()
		}
	}

	// The hash-cons key must vary with value/duration, not just watched,
	// so `a~^(10s)` and `a~^!(10s)` never collapse to the same cell.
	typeName := fmt.Sprintf("delay:%s:%s", value.Kind(), duration)
	d.Cell = g.UseCondition(typeName, eval, watched)
	d.Cell.OnTimer = func(*nbcell.Cell) { d.Fire() }
	return d
}

// Fire is invoked when the armed duration elapses without a
// counter-edge; the delay cell reverts to False (the timer having
// already done its one job of holding value for the duration).
func (d *DelayCell) Fire() {
	if !d.armed {
		return
	}
	d.armed = false
	if d.Cell.SetValue(nbobject.False) {
		d.graph.Alert(d.Cell)
	}
}
