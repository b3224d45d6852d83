// Package nbtimer implements the wall-clock timer dispatcher: a priority queue of armed alarms keyed on wall-clock
// seconds, built over github.com/robfig/cron/v3. Each schedule cell arms a single
// one-shot alarm for its next interval boundary; firing delivers the
// cell back to the caller, which is responsible for marshaling that
// delivery onto the single engine thread before touching any
// cell state.
package nbtimer

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/trettevik/nodebrain/internal/nbcell"
)

// onceSchedule implements cron.Schedule for a single wall-clock instant:
// it reports at exactly once, then recedes into the far future so the
// cron runner never invokes the job again without an explicit re-arm.
// Delay operators and "next boundary" alarms both need exactly this
// one-shot shape, fundamentally different from cron's native
// recurring-expression schedules.
type onceSchedule struct {
	at    time.Time
	fired bool
}

// Next implements cron.Schedule. Cron asks once when the entry is
// added and once more after each run; the first answer is the alarm
// instant (or the next whole second when at is already past).
func (o *onceSchedule) Next(t time.Time) time.Time {
	if !o.fired {
		o.fired = true
		if t.Before(o.at) {
			return o.at
		}
		return t.Truncate(time.Second).Add(time.Second)
	}
	// Cron requires Next to return some time after t; returning a date
	// far in the future means this schedule is effectively consumed
	// once it has fired, matching "one-shot".
	return t.Add(100 * 365 * 24 * time.Hour)
}

// Dispatcher owns the single *cron.Cron instance that arms every
// schedule cell's next-edge alarm and every delay operator's duration
// timer. Deliver is invoked from cron's
// own goroutine when an alarm fires; it must marshal the notification
// onto the engine's single logical thread before any cell
// state is touched — e.g. by sending on a channel the engine's event
// loop selects on.
type Dispatcher struct {
	mu      sync.Mutex
	cronSvc *cron.Cron
	entries map[*nbcell.Cell]cron.EntryID
	now     func() time.Time

	Deliver func(cell *nbcell.Cell)

	// OnArm, when set, is notified every time Arm registers a fresh
	// alarm — the single choke point every schedule and delay cell's
	// re-arm passes through, used to feed reactor.Manager.NotifyTimerArmed
	// without threading an observer reference through nbtime.
	OnArm func(cell *nbcell.Cell)
}

// New creates a Dispatcher. nowFn supplies the monotonic clock source;
// a nil nowFn defaults to time.Now.
func New(nowFn func() time.Time) *Dispatcher {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Dispatcher{
		cronSvc: cron.New(cron.WithSeconds()),
		entries: make(map[*nbcell.Cell]cron.EntryID),
		now:     nowFn,
	}
}

// Start launches the dispatcher's background goroutine. Cancellable via
// Stop.
func (d *Dispatcher) Start() { d.cronSvc.Start() }

// Stop halts the dispatcher, waiting for any in-flight job to return.
func (d *Dispatcher) Stop() { <-d.cronSvc.Stop().Done() }

// Arm schedules a one-shot alarm for cell at the given wall-clock
// instant, cancelling any alarm already armed against it. If at is not
// after the dispatcher's current time, the alarm fires on the next
// cron tick (minimum 1 second resolution).
func (d *Dispatcher) Arm(cell *nbcell.Cell, at time.Time) {
	d.Cancel(cell)

	job := cron.FuncJob(func() {
		d.mu.Lock()
		delete(d.entries, cell)
		d.mu.Unlock()
		cell.DisarmTimer()
		if d.Deliver != nil {
			d.Deliver(cell)
		}
	})

	id := d.cronSvc.Schedule(&onceSchedule{at: at}, job)

	d.mu.Lock()
	d.entries[cell] = id
	d.mu.Unlock()
	cell.ArmTimer()
	if d.OnArm != nil {
		d.OnArm(cell)
	}
}

// Cancel disarms any alarm currently registered against cell.
func (d *Dispatcher) Cancel(cell *nbcell.Cell) {
	d.mu.Lock()
	id, ok := d.entries[cell]
	if ok {
		delete(d.entries, cell)
	}
	d.mu.Unlock()
	if ok {
		d.cronSvc.Remove(id)
		cell.DisarmTimer()
	}
}

// Armed reports whether cell currently has a live alarm.
func (d *Dispatcher) Armed(cell *nbcell.Cell) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.entries[cell]
	return ok
}

// Now returns the dispatcher's configured clock reading.
func (d *Dispatcher) Now() time.Time { return d.now() }

// ArmDuration arms a one-shot alarm after the requested duration,
// grounding the `~^(…)` delay operators' fixed-duration re-arm on
// cron.ConstantDelaySchedule-style fixed intervals.
func (d *Dispatcher) ArmDuration(cell *nbcell.Cell, d2 time.Duration) {
	d.Arm(cell, d.now().Add(d2))
}
