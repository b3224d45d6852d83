package nbrule

import (
	"sync"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbcmd"
	"github.com/trettevik/nodebrain/internal/nbcond"
	"github.com/trettevik/nodebrain/internal/nblog"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/reactor"
)

// Kind distinguishes the three rule flavours.
type Kind int

const (
	// KindOn fires on each transition into a true value.
	KindOn Kind = iota
	// KindWhen fires once, then the defining term self-undefines.
	KindWhen
	// KindIf fires on any alert cycle while the condition is true.
	KindIf
)

func (k Kind) String() string {
	switch k {
	case KindOn:
		return "on"
	case KindWhen:
		return "when"
	case KindIf:
		return "if"
	default:
		return "rule"
	}
}

// CommandSink is the external collaborator that executes an action's
// command string; the core engine never performs I/O itself.
type CommandSink interface {
	Exec(ctx *nbcell.Term, command string) error
}

// Rule is a condition cell paired with an Action. The trigger cell watches
// Cond's value and invokes the scheduler according to Kind's firing
// semantics.
type Rule struct {
	Name    string
	Kind    Kind
	Cond    *nbcell.Cell
	Action  *Action
	trigger *nbcell.Cell

	sched       *Scheduler
	undefine    func()
	mu          sync.Mutex
	activeIfSet bool
}

// Scheduler is the rule & action layer's runtime: the global action
// queue, the react loop that drains both the cell graph's alert list and
// the action queue to quiescence, and the set of currently-true `if`
// rules.
type Scheduler struct {
	Graph   *nbcell.Graph
	Queue   *ActionQueue
	Changes *nbcond.ChangeTracker
	Sink      CommandSink
	Log       nblog.Sink
	Observe   *reactor.Manager
	Templates *nbcmd.Processor

	mu      sync.Mutex
	ifRules []*Rule
}

// NewScheduler wires a Scheduler over an existing cell graph and change
// tracker; Sink and Observe start nil (a nil sink means commands are
// silently dropped, a nil observer manager means no lifecycle events
// fan out), and Log starts as a no-op sink. Log is called without a
// nil check, so it must not be set to nil.
func NewScheduler(g *nbcell.Graph, changes *nbcond.ChangeTracker) *Scheduler {
	return &Scheduler{
		Graph:     g,
		Queue:     NewActionQueue(),
		Changes:   changes,
		Log:       nblog.NewNop(),
		Templates: nbcmd.NewProcessor(),
	}
}

// CycleStats reports what happened during one React call; an alias of
// reactor.CycleStats kept local so nbrule does not need to import the
// engine's top-level wiring to report it.
type CycleStats = reactor.CycleStats

// newTrigger creates the synthetic cell that watches cond's transitions.
// onTransition is called with the cell's previous and current value
// whenever they differ during a Drain pass.
func newTrigger(typeName string, cond *nbcell.Cell, onTransition func(old, new *nbobject.Object)) *nbcell.Cell {
	last := nbobject.Disabled
	eval := func(c *nbcell.Cell) *nbobject.Object {
		cur := cond.Value()
		if cur != last {
			old := last
			last = cur
			onTransition(old, cur)
		}
		return cur
	}
	return nbcell.NewCondition(typeName, eval, cond)
}

// bindingEnv builds the `${expr}` splice environment for an action's
// command string from its context term's immediate children: each child's name maps
// to its cell's current value (the Object's String form for
// strings/booleans/three-valued constants, float64 for reals, so
// `${x + 1}` still works on numeric terms).
func bindingEnv(ctx *nbcell.Term) map[string]any {
	env := make(map[string]any)
	if ctx == nil {
		return env
	}
	for _, child := range ctx.Children() {
		v := child.Cell.Value()
		if v.Kind() == nbobject.KindReal {
			env[child.Name] = v.Real()
		} else {
			env[child.Name] = v.String()
		}
	}
	return env
}

// isTrue reports whether v is a rule-firing "true" value: True itself
// or any real or string value. False, Unknown and the Disabled and
// Placeholder sentinels are not true.
func isTrue(v *nbobject.Object) bool {
	return v != nil && v != nbobject.False && v != nbobject.Unknown &&
		v != nbobject.Disabled && v != nbobject.Placeholder
}

// NewOnRule builds an `on` rule: fires on each transition from a
// non-true value into a true one.
func (s *Scheduler) NewOnRule(name string, cond *nbcell.Cell, ctx *nbcell.Term, assertions []Assertion, command string, priority int8) *Rule {
	action := NewAction(ctx, assertions, command, priority)
	r := &Rule{Name: name, Kind: KindOn, Cond: cond, Action: action, sched: s}
	r.trigger = newTrigger("rule.on:"+name, cond, func(old, new *nbobject.Object) {
		if isTrue(new) && !isTrue(old) {
			s.fire(r)
		}
	})
	return r
}

// NewWhenRule builds a `when` rule: identical firing semantics to `on`,
// but once fired the defining term is undefined so it never fires
// again. undefine is called exactly once, after the action transitions
// to Ash.
func (s *Scheduler) NewWhenRule(name string, cond *nbcell.Cell, ctx *nbcell.Term, assertions []Assertion, command string, priority int8, undefine func()) *Rule {
	action := NewAction(ctx, assertions, command, priority)
	r := &Rule{Name: name, Kind: KindWhen, Cond: cond, Action: action, sched: s, undefine: undefine}
	action.AfterFire = func() {
		// A `when` rule fires exactly once across the life of the engine:
		// detach the trigger from its condition so a later transition
		// back into True cannot fire it again, then self-undefine the
		// defining term.
		cond.Unsubscribe(r.trigger)
		r.trigger.Disable()
		if r.undefine != nil {
			r.undefine()
		}
	}
	r.trigger = newTrigger("rule.when:"+name, cond, func(old, new *nbobject.Object) {
		if isTrue(new) && !isTrue(old) {
			s.fire(r)
		}
	})
	return r
}

// NewIfRule builds an `if` rule: while Cond is true the action is kept
// on the scheduler's active-if list and fires once per React cycle
// regardless of whether Cond's own value changed.
func (s *Scheduler) NewIfRule(name string, cond *nbcell.Cell, ctx *nbcell.Term, assertions []Assertion, command string, priority int8) *Rule {
	action := NewAction(ctx, assertions, command, priority)
	r := &Rule{Name: name, Kind: KindIf, Cond: cond, Action: action, sched: s}
	r.trigger = newTrigger("rule.if:"+name, cond, func(old, new *nbobject.Object) {
		if isTrue(new) {
			s.activateIf(r)
		} else {
			s.deactivateIf(r)
		}
	})
	return r
}

func (s *Scheduler) activateIf(r *Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.activeIfSet {
		return
	}
	r.activeIfSet = true
	s.ifRules = append(s.ifRules, r)
}

func (s *Scheduler) deactivateIf(r *Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !r.activeIfSet {
		return
	}
	r.activeIfSet = false
	for i, x := range s.ifRules {
		if x == r {
			s.ifRules = append(s.ifRules[:i], s.ifRules[i+1:]...)
			return
		}
	}
}

// fire schedules r's action, suppressing (and logging) a double-fire
// while the action is already Scheduled or Processing.
func (s *Scheduler) fire(r *Rule) {
	switch r.Action.status() {
	case StatusScheduled, StatusProcessing:
		r.Action.setStatus(StatusError)
		s.Log.Log(nblog.LevelError, "rule fired while action already in flight", map[string]any{"rule": r.Name})
		return
	}
	s.Queue.Schedule(r.Action)
	if s.Observe != nil {
		s.Observe.NotifyActionScheduled(r.Action.ID, int(r.Action.Priority))
	}
}

// fireActiveIfRules schedules every currently-active `if` rule's action
// once per React pass, skipping any still in flight from a prior pass.
func (s *Scheduler) fireActiveIfRules() {
	s.mu.Lock()
	rules := make([]*Rule, len(s.ifRules))
	copy(rules, s.ifRules)
	s.mu.Unlock()

	for _, r := range rules {
		if r.Action.status() == StatusReady || r.Action.status() == StatusAsh || r.Action.status() == StatusError {
			s.fire(r)
		}
	}
}

// React drains the cell graph and the action queue to quiescence,
// alternating between the two until both are empty, then resets any change cells (`~= a`) that pulsed during the
// cycle. Active `if` rules are scheduled exactly once per React call —
// one alert cycle is one stimulus, not one pass of the inner
// cell/action drain — so firing happens only on the first iteration.
// It returns the cycle's CycleStats.
func (s *Scheduler) React() CycleStats {
	var stats CycleStats
	firedIfRules := false
	for {
		stats.CellsEvaluated += s.Graph.Drain()
		if !firedIfRules {
			s.fireActiveIfRules()
			firedIfRules = true
		}

		a := s.Queue.Pop()
		if a == nil {
			break
		}
		s.runAction(a)
		stats.ActionsFired++
	}
	if s.Changes != nil {
		s.Changes.DrainResets()
	}
	return stats
}

// runAction executes a single action:
// mark Processing, apply the assertion list (publishing each changed
// term through the graph), run the command via the external sink, mark
// Ash, then run AfterFire (which self-undefines `when` rules).
func (s *Scheduler) runAction(a *Action) {
	a.setStatus(StatusProcessing)

	for _, asn := range a.Assert {
		v := asn.Value.Value()
		if asn.Term.Cell.SetValue(v) {
			s.Graph.AlertCell(asn.Term.Cell)
		}
	}

	if a.Command != "" && s.Sink != nil {
		command := a.Command
		if s.Templates != nil {
			command = s.Templates.Expand(command, bindingEnv(a.Context))
		}
		if err := s.Sink.Exec(a.Context, command); err != nil {
			s.Log.Log(nblog.LevelError, "command failed", map[string]any{"command": command, "error": err.Error()})
		}
	}

	a.setStatus(StatusAsh)
	if s.Observe != nil {
		s.Observe.NotifyActionFired(a.ID, nil)
	}
	if a.AfterFire != nil {
		a.AfterFire()
	}
}
