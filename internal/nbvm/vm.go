// Package nbvm implements the Rule Plan VM: procedural
// `{...}` rules compile to a byte-stream of fixed-size instructions
// over a small opcode set, and this package's VM interprets that
// stream, yielding at the same two suspension points as the rest of
// the engine and resuming on timer alarm or subscribed
// condition change.
//
// A bytecode interpreter loop is plain control flow over a slice and a
// switch, so this package carries no third-party dependency (see
// DESIGN.md).
package nbvm

import (
	"time"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbrule"
	"github.com/trettevik/nodebrain/internal/nbtime"
	"github.com/trettevik/nodebrain/internal/nbtimer"
)

// Op identifies a Rule Plan VM instruction.
type Op int

const (
	OpLoopBegin Op = iota
	OpLoopEnd
	OpBranch
	OpIf
	OpOnEnable
	OpWhenTest
	OpStep
	OpAlign
	OpWait
	OpDefine
	OpValue
	OpAssert
	OpCommand
	OpExit
)

// Instr is one fixed-size Rule Plan VM instruction. Only the fields
// relevant to Op are meaningful for any given instruction; unused
// fields are the zero value.
type Instr struct {
	Op Op

	Counter int // LoopBegin/LoopEnd: index into VM.counters
	N       int // LoopBegin: initial count; Step: units to advance; Align: n-th interval
	Jump    int // Branch/If/LoopEnd: target instruction index

	Cond *nbcell.Cell // If/OnEnable/WhenTest: condition to test/watch

	Fn Unit // Step: the calendar unit to advance rule.time by

	TCDef nbtime.Expr // Align: the time-condition tree to align against

	Offset time.Duration // Wait: offset from rule.time at which to arm

	Cell *nbcell.Cell // Define: cell to subscribe to and publish

	Value *nbobject.Object // Value: constant to publish

	Assertions []nbrule.Assertion // Assert: the rule's assertion list
	Command    string             // Command: the rule's command text

	Priority int8 // Assert/Command: action priority
}

// Unit re-exports nbtime.Unit so callers building a Program don't need
// a second import just to spell Step's calendar unit.
type Unit = nbtime.Unit

// Program is a compiled procedural rule's instruction stream.
type Program []Instr

// State is the VM's suspension status after a Run call returns: it
// runs instructions until one yields control back to the caller.
type State int

const (
	// StateRunning is the initial state: Run has not yet suspended or
	// exited.
	StateRunning State = iota
	// StateYielded means Run suspended at OpWhenTest or OpWait; it
	// resumes from the same instruction next Run call.
	StateYielded
	// StateWaitingEnable means Run suspended at OpOnEnable, subscribed
	// to Cond and waiting for it to change.
	StateWaitingEnable
	// StateDone means Run executed OpExit.
	StateDone
)

// VM interprets one Program against a rule's mutable execution state.
type VM struct {
	Cell *nbcell.Cell // the plan's own published cell

	Program  Program
	ip       int
	counters []int

	ruleTime time.Time
	clock    func() time.Time

	graph      *nbcell.Graph
	scheduler  *nbrule.Scheduler
	dispatcher *nbtimer.Dispatcher

	watching *nbcell.Cell
	armed    bool

	state State
}

// New creates a VM over prog, ready to run from instruction 0. clock
// supplies rule.time's initial reading; graph/scheduler/dispatcher are
// the collaborators Define/Assert/Command/Wait/OnEnable publish
// through.
func New(prog Program, g *nbcell.Graph, sched *nbrule.Scheduler, dispatcher *nbtimer.Dispatcher, clock func() time.Time) *VM {
	if clock == nil {
		clock = time.Now
	}
	maxCounter := 0
	for _, in := range prog {
		if in.Op == OpLoopBegin && in.Counter+1 > maxCounter {
			maxCounter = in.Counter + 1
		}
	}
	vm := &VM{
		Program:    prog,
		counters:   make([]int, maxCounter),
		clock:      clock,
		ruleTime:   clock(),
		graph:      g,
		scheduler:  sched,
		dispatcher: dispatcher,
	}
	vm.Cell = nbcell.NewLeaf("plan", nbobject.Unknown)
	return vm
}

// State reports the VM's current suspension status.
func (vm *VM) State() State { return vm.state }

// Run executes instructions starting at the current instruction
// pointer until the plan yields (OpWhenTest/OpWait), suspends on
// OpOnEnable, or exits (OpExit). It returns the resulting State.
func (vm *VM) Run() State {
	for vm.ip < len(vm.Program) {
		in := vm.Program[vm.ip]
		switch in.Op {
		case OpLoopBegin:
			vm.counters[in.Counter] = in.N
			vm.ip++

		case OpLoopEnd:
			vm.counters[in.Counter]--
			if vm.counters[in.Counter] > 0 {
				vm.ip = in.Jump
			} else {
				vm.ip++
			}

		case OpBranch:
			vm.ip = in.Jump

		case OpIf:
			if in.Cond.Value() != nbobject.True {
				vm.ip = in.Jump
			} else {
				vm.ip++
			}

		case OpOnEnable:
			vm.watching = in.Cond
			vm.state = StateWaitingEnable
			return vm.state

		case OpWhenTest:
			if in.Cond.Value() == nbobject.True {
				vm.ip++
				continue
			}
			vm.state = StateYielded
			return vm.state

		case OpStep:
			vm.ruleTime = nbtime.Step(vm.ruleTime, in.Fn, in.N)
			vm.ip++

		case OpAlign:
			vm.ruleTime = alignNth(vm.ruleTime, in.TCDef, in.N)
			vm.ip++

		case OpWait:
			target := vm.ruleTime.Add(in.Offset)
			now := vm.clock()
			if target.After(now) {
				if vm.dispatcher != nil {
					vm.dispatcher.Arm(vm.Cell, target)
					vm.armed = true
				}
				vm.state = StateYielded
				return vm.state
			}
			vm.ip++

		case OpDefine:
			v := in.Cell.Value()
			if vm.Cell.SetValue(v) && vm.graph != nil {
				vm.graph.Alert(vm.Cell)
			}
			vm.ip++

		case OpValue:
			if vm.Cell.SetValue(in.Value) && vm.graph != nil {
				vm.graph.Alert(vm.Cell)
			}
			vm.ip++

		case OpAssert:
			if vm.scheduler != nil {
				a := nbrule.NewAction(nil, in.Assertions, "", in.Priority)
				vm.scheduler.Queue.Schedule(a)
			}
			vm.ip++

		case OpCommand:
			if vm.scheduler != nil {
				a := nbrule.NewAction(nil, nil, in.Command, in.Priority)
				vm.scheduler.Queue.Schedule(a)
			}
			vm.ip++

		case OpExit:
			vm.state = StateDone
			return vm.state

		default:
			vm.state = StateDone
			return vm.state
		}
	}
	vm.state = StateDone
	return vm.state
}

// Resume is called when the cell watch arms (OnEnable's subscribed
// condition changed, or Wait's timer fired); it advances past a
// suspending OnEnable instruction, re-enters a suspended WhenTest or
// Wait instruction as it stands, and resumes Run.
func (vm *VM) Resume() State {
	switch vm.state {
	case StateWaitingEnable:
		if vm.watching != nil {
			vm.watching.Subscribe(vm.Cell)
		}
		vm.watching = nil
		vm.ip++
	case StateYielded:
		if vm.armed {
			vm.armed = false
		}
		// OpWhenTest and a fired OpWait both simply re-enter Run at the
		// same instruction: WhenTest re-tests the condition, and a fired
		// Wait instruction finds target no longer After(now).
	}
	return vm.Run()
}

// alignNth advances t forward to the n-th interval start of tcdef after
// t. n must be >= 1.
func alignNth(t time.Time, tcdef nbtime.Expr, n int) time.Time {
	if n < 1 {
		n = 1
	}
	window := 24 * time.Hour
	const maxWindow = 100 * 365 * 24 * time.Hour
	for window <= maxWindow {
		bfi := tcdef.Cast(t, t.Add(window))
		count := 0
		for _, iv := range bfi.Intervals {
			if iv.Start.After(t) || iv.Start.Equal(t) {
				count++
				if count == n {
					return iv.Start
				}
			}
		}
		window *= 2
	}
	return t
}
