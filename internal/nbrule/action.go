// Package nbrule implements the rule and action layer: the
// on/when/if rule cells, the assertion list each rule's Action carries,
// the priority-ordered action queue, and the react loop that drains
// both the cell graph's alert queue and the action queue to quiescence.
package nbrule

import (
	"sync"

	"github.com/google/uuid"
	"github.com/trettevik/nodebrain/internal/nbcell"
)

// Status is the firing state machine an Action moves through: Ready -> Scheduled -> Processing -> Ash
// -> Ready (or Delete); Error marks an action whose second fire attempt
// while still Scheduled was suppressed.
type Status int

const (
	StatusReady Status = iota
	StatusScheduled
	StatusProcessing
	StatusAsh
	StatusDelete
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusScheduled:
		return "scheduled"
	case StatusProcessing:
		return "processing"
	case StatusAsh:
		return "ash"
	case StatusDelete:
		return "delete"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Assertion is one entry of a rule's assertion list: a term to assign
// and the cell supplying its new value.
type Assertion struct {
	Term  *nbcell.Term
	Value *nbcell.Cell
}

// Action is the imperative tail of a rule: an owning
// context, an optional assertion list, an optional command string and a
// signed priority used to order the action queue.
type Action struct {
	mu sync.Mutex

	ID       string
	Context  *nbcell.Term
	Assert   []Assertion
	Command  string
	Priority int8
	Status   Status

	// AfterFire runs once the action reaches StatusAsh. `when` rules use
	// it to self-undefine their defining term.
	AfterFire func()

	// seq is the insertion sequence used to break priority ties FIFO.
	seq uint64
}

// NewAction creates a Ready action with a fresh trace identifier: every
// scheduled Action gets a UUID for log correlation.
func NewAction(ctx *nbcell.Term, assertions []Assertion, command string, priority int8) *Action {
	return &Action{
		ID:       uuid.NewString(),
		Context:  ctx,
		Assert:   assertions,
		Command:  command,
		Priority: priority,
		Status:   StatusReady,
	}
}

func (a *Action) status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Status
}

func (a *Action) setStatus(s Status) {
	a.mu.Lock()
	a.Status = s
	a.mu.Unlock()
}
