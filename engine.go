// Package nodebrain is the engine's public surface: parsing source text into the cell graph, forcing
// evaluation, injecting external state, defining rules, advancing the
// timer dispatcher, and subscribing to published values. It is a thin
// facade over the internal packages, built with constructor functions.
package nodebrain

import (
	"time"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbcond"
	"github.com/trettevik/nodebrain/internal/nbconfig"
	"github.com/trettevik/nodebrain/internal/nblog"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbparse"
	"github.com/trettevik/nodebrain/internal/nbrule"
	"github.com/trettevik/nodebrain/internal/nbtimer"
	"github.com/trettevik/nodebrain/internal/nbvm"
	"github.com/trettevik/nodebrain/internal/reactor"
)

// Plan is a compiled procedural `{...}` rule's instruction stream.
type Plan = nbvm.Program

// PlanRunner drives one running Plan against the engine's cell graph,
// action queue and timer dispatcher.
type PlanRunner = nbvm.Runner

// Sink is the engine's execCommand(context, command_string, options)
// callback, naming the external collaborator that carries out an
// action's command string.
type Sink = nbrule.CommandSink

// Logger is the engine's log(level, message) callback.
type Logger = nblog.Sink

// Subscriber receives a cell's new value whenever it changes.
type Subscriber func(path string, value *nbobject.Object)

// Options configures a new Engine. Every field has a working zero
// value; Options{} builds a usable engine with no command sink, a
// stderr logger and the configured default horizon.
type Options struct {
	Sink    Sink
	Logger  Logger
	Clock   func() time.Time
	Horizon time.Duration
}

// Engine is one running NodeBrain instance: a cell graph, its term
// namespace, the rule scheduler, and the timer dispatcher driving time
// conditions and delay operators.
type Engine struct {
	Graph      *nbcell.Graph
	Root       *nbcell.Term
	Changes    *nbcond.ChangeTracker
	Scheduler  *nbrule.Scheduler
	Dispatcher *nbtimer.Dispatcher
	Observe    *reactor.Manager

	clock      func() time.Time
	horizon    time.Duration
	deliveries chan *nbcell.Cell
}

// deliveryBacklog is the buffer depth for timer deliveries awaiting the
// engine's owning goroutine; it only needs to absorb a burst of alarms
// firing faster than Run/HandleDelivery drains them.
const deliveryBacklog = 64

// New wires a fresh Engine: a graph, a root term, a change tracker, a
// rule scheduler and a timer dispatcher, all sharing one logical
// thread.
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Horizon <= 0 {
		opts.Horizon = nbconfig.App().DefaultHorizon
	}
	if opts.Logger == nil {
		opts.Logger = nblog.NewDefault()
	}

	g := nbcell.NewGraph()
	changes := nbcond.NewChangeTracker()
	sched := nbrule.NewScheduler(g, changes)
	sched.Sink = opts.Sink
	sched.Log = opts.Logger
	sched.Observe = reactor.NewManager()

	dispatcher := nbtimer.New(opts.Clock)
	dispatcher.Start()

	e := &Engine{
		Graph:      g,
		Root:       nbcell.NewRoot(),
		Changes:    changes,
		Scheduler:  sched,
		Dispatcher: dispatcher,
		Observe:    sched.Observe,
		clock:      opts.Clock,
		horizon:    opts.Horizon,
		deliveries: make(chan *nbcell.Cell, deliveryBacklog),
	}
	dispatcher.Deliver = e.enqueueDelivery
	return e
}

// Close stops the timer dispatcher, releasing its background goroutine.
func (e *Engine) Close() { e.Dispatcher.Stop() }

// env builds the parser binding environment for one Parse call; it is
// cheap enough to build per call since it carries no state of its own.
func (e *Engine) env() *nbparse.Env {
	return &nbparse.Env{
		Graph:      e.Graph,
		Root:       e.Root,
		Changes:    e.Changes,
		Scheduler:  e.Scheduler,
		Dispatcher: e.Dispatcher,
		Clock:      e.clock,
		Horizon:    e.horizon,
	}
}

// Parse compiles source, a sequence of NodeBrain statements, into the
// cell graph and returns one ParseResult per statement.
func (e *Engine) Parse(source string) ([]nbparse.ParseResult, error) {
	p, err := nbparse.New(source, e.env())
	if err != nil {
		return nil, err
	}
	return p.ParseAll()
}

// Evaluate forces evaluation of cell, returning its current value. Cell
// values are normally read lazily through React's drain; Evaluate is
// for callers that need a value
// outside a reaction cycle, e.g. a `show` command.
func (e *Engine) Evaluate(cell *nbcell.Cell) *nbobject.Object {
	cell.Recompute()
	return cell.Value()
}

// Term resolves (creating if necessary) the dotted-path term named by
// path, relative to the engine's root.
func (e *Engine) Term(path string) *nbcell.Term {
	return e.env().Term(path)
}

// Assert publishes value onto term's cell and alerts its subscribers.
func (e *Engine) Assert(term *nbcell.Term, value *nbobject.Object) {
	if term.Cell.SetValue(value) {
		e.Graph.AlertCell(term.Cell)
	}
}

// AssertList applies every assertion in one batch: each changed value
// is published and its alert queued, without draining the graph or
// running React. The next Tick then propagates the whole batch in a
// single cycle rather than one cycle per entry.
func (e *Engine) AssertList(assertions []nbrule.Assertion) {
	for _, a := range assertions {
		if a.Term.Cell.SetValue(a.Value.Value()) {
			e.Graph.AlertCell(a.Term.Cell)
		}
	}
}

// Alert is the external-stimulus twin of Assert: it publishes value the
// same way, the distinction living entirely in the caller's own
// bookkeeping of which inputs are "asserted" facts versus "alerted"
// events.
func (e *Engine) Alert(term *nbcell.Term, value *nbobject.Object) {
	e.Assert(term, value)
}

// DefineRule registers a rule of the given kind against cond, with ctx
// as the action's owning context.
func (e *Engine) DefineRule(ctx *nbcell.Term, name string, kind nbrule.Kind, cond *nbcell.Cell, assertions []nbrule.Assertion, command string, priority int8) *nbrule.Rule {
	switch kind {
	case nbrule.KindWhen:
		term := e.Term(name)
		return e.Scheduler.NewWhenRule(name, cond, ctx, assertions, command, priority, func() {
			if term.Parent != nil {
				term.Parent.Remove(term.Name)
			}
		})
	case nbrule.KindIf:
		return e.Scheduler.NewIfRule(name, cond, ctx, assertions, command, priority)
	default:
		return e.Scheduler.NewOnRule(name, cond, ctx, assertions, command, priority)
	}
}

// RunPlan compiles and starts a procedural rule-plan,
// returning the Runner driving it against this Engine's graph,
// scheduler and timer dispatcher. The returned Runner's Cell carries
// the plan's published value, the same way any other rule cell's
// value can be read or subscribed to.
func (e *Engine) RunPlan(prog Plan) *PlanRunner {
	return nbvm.Start(prog, e.Graph, e.Scheduler, e.Dispatcher, e.clock)
}

// Tick drains the cell graph and action queue to quiescence. The
// wall-clock reading itself comes from the Engine's configured clock,
// not a parameter, since every timer already shares that same clock.
// It returns the cycle's statistics.
func (e *Engine) Tick() nbrule.CycleStats {
	return e.Scheduler.React()
}

// enqueueDelivery is the dispatcher's Deliver callback, invoked on
// cron's own goroutine. Per nbtimer.Dispatcher's documented contract it
// must not touch cell state itself; it only marshals cell onto the
// engine's delivery channel, draining on the engine's own goroutine via
// Run/HandleDelivery. The channel send is spun off into its own
// goroutine so a momentarily full backlog never blocks cron's delivery
// goroutine (and therefore never delays some other alarm's firing).
func (e *Engine) enqueueDelivery(cell *nbcell.Cell) {
	select {
	case e.deliveries <- cell:
	default:
		go func() { e.deliveries <- cell }()
	}
}

// Deliveries exposes the channel timer-fired cells arrive on, for
// callers that want to fold engine delivery handling into their own
// select loop instead of calling Run.
func (e *Engine) Deliveries() <-chan *nbcell.Cell { return e.deliveries }

// HandleDelivery performs the actual work for one timer delivery and
// must only ever be called from the engine's single owning goroutine
// (normally from inside Run, or from a caller-driven select loop
// reading Deliveries()), never directly from the dispatcher's delivery
// goroutine. A schedule or delay cell carries its own OnTimer, which
// recomputes its value and re-arms the next alarm directly; a
// rule-plan cell has no OnTimer and instead resumes through its
// ordinary Eval function once alerted. Either way a React cycle
// follows so the resulting cascade (and any action it schedules) is
// drained before the next delivery is handled.
func (e *Engine) HandleDelivery(cell *nbcell.Cell) {
	if cell.OnTimer != nil {
		cell.OnTimer(cell)
	} else {
		e.Graph.AlertCell(cell)
	}
	e.Tick()
}

// Run drains timer deliveries on the calling goroutine until stop is
// closed, making the caller's goroutine the engine's single logical
// thread for as long as it runs — the "event loop selects on a
// channel" nbtimer.Dispatcher's doc comment prescribes. A long-lived
// process that wants time conditions and delay operators to keep
// firing after its initial Parse/Tick should call Run on its own
// goroutine and close stop to shut it down.
func (e *Engine) Run(stop <-chan struct{}) {
	for {
		select {
		case cell := <-e.deliveries:
			e.HandleDelivery(cell)
		case <-stop:
			return
		}
	}
}

// Subscribe registers fn to be called whenever term's value changes,
// implemented as a synthetic one-child condition cell purely for its
// side effect.
func (e *Engine) Subscribe(term *nbcell.Term, fn Subscriber) {
	path := term.Path()
	last := term.Cell.Value()
	nbcell.NewCondition("subscriber:"+path, func(c *nbcell.Cell) *nbobject.Object {
		cur := c.Left.Value()
		if cur != last {
			last = cur
			fn(path, cur)
		}
		return cur
	}, term.Cell)
}
