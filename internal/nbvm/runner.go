package nbvm

import (
	"time"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbrule"
	"github.com/trettevik/nodebrain/internal/nbtimer"
)

// Runner drives a VM against the live cell graph, the rule scheduler's
// action queue, and the timer dispatcher, bridging the VM's own
// suspension protocol (OnEnable/Wait) to the graph's ordinary
// subscribe/alert mechanism.
type Runner struct {
	vm *VM
}

// Start compiles prog into a running VM, wires its published Cell's
// Eval function to resume the VM whenever a watched condition alerts
// or an armed timer delivers, and drives it to its first suspension
// point.
func Start(prog Program, g *nbcell.Graph, sched *nbrule.Scheduler, dispatcher *nbtimer.Dispatcher, clock func() time.Time) *Runner {
	r := &Runner{vm: New(prog, g, sched, dispatcher, clock)}
	r.vm.Cell.Eval = func(c *nbcell.Cell) *nbobject.Object {
		r.advance(r.vm.Resume())
		return c.Value()
	}
	r.advance(r.vm.Run())
	return r
}

// Cell is the plan's published value cell.
func (r *Runner) Cell() *nbcell.Cell { return r.vm.Cell }

// State reports the underlying VM's current suspension status.
func (r *Runner) State() State { return r.vm.State() }

// advance reacts to a state transition out of Run/Resume: a
// WaitingEnable suspension needs the watched cell subscribed to the
// plan's own Cell so a future alert on it re-enters Eval, which calls
// Resume again. A Yielded suspension from OpWait already armed a timer
// on Cell inside Run/Resume; its delivery re-enters Eval the same way
// via Graph.AlertCell, so nothing further is needed here.
func (r *Runner) advance(state State) {
	if state == StateWaitingEnable && r.vm.watching != nil {
		r.vm.watching.Subscribe(r.vm.Cell)
	}
}
