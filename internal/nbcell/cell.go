// Package nbcell implements the dataflow cell graph and its level-ordered
// reaction protocol.
//
// A Cell is a node in a demand-driven publish/subscribe graph: leaf cells
// hold an assigned value, condition cells recompute their value from their
// children whenever a child changes, and every cell fans out to the
// subscriber list of cells that reference it. Level ordering guarantees a
// cell is never evaluated before all of its children have settled in the
// current reaction cycle.
package nbcell

import (
	"sync"

	"github.com/trettevik/nodebrain/internal/nbobject"
)

// Mode is a bitset of the transient flags a cell carries alongside its
// value: whether it is currently enabled, queued for re-evaluation, or
// has a wall-clock timer armed against it.
type Mode uint8

const (
	// ModeEnabled means the cell currently participates in reactions.
	// A disabled cell reports nbobject.Disabled regardless of its
	// cached Value.
	ModeEnabled Mode = 1 << iota
	// ModeScheduled means the cell is already queued for re-evaluation
	// in the current or a pending reaction cycle; Alert uses this to
	// avoid enqueuing the same cell twice.
	ModeScheduled
	// ModeTimerArmed means a wall-clock alarm is currently registered
	// against this cell.
	ModeTimerArmed
)

// EvalFunc recomputes a condition cell's value from its children. Leaf
// (term-storage) cells have a nil EvalFunc; their value only changes via
// SetValue.
type EvalFunc func(c *Cell) *nbobject.Object

// Cell is a single node of the dataflow graph.
type Cell struct {
	mu sync.Mutex

	// TypeName identifies the cell's kind for diagnostics and hash-consing
	// ("and", "schedule", "rule.on", "term", ...).
	TypeName string

	// Left and Right are the primary operand cells for unary/binary
	// condition cells. Kids holds any additional children (n-ary
	// conditions, time-condition argument lists, rule action lists).
	Left, Right *Cell
	Kids        []*Cell

	// Level is 1 + the maximum level of this cell's children, or 0 for a
	// leaf. The reactor drains pending cells in ascending level order so
	// no cell reacts before its dependencies have settled.
	Level int

	// Eval recomputes the cell's value. Nil for leaf/term-storage cells.
	Eval EvalFunc

	// OnEnable runs once when the cell transitions from disabled to
	// enabled, letting rule and schedule cells perform first-enable
	// bookkeeping.
	OnEnable func(c *Cell)

	// OnTimer runs when the timer dispatcher delivers an armed alarm for
	// this cell, letting schedule and delay cells recompute and re-arm
	// before the graph cascades the change. Nil for cells with no
	// timer-driven behavior, which fall back to an ordinary alert.
	OnTimer func(c *Cell)

	value *nbobject.Object
	mode  Mode
	subs  []*Cell
}

// NewLeaf creates a term-storage cell with no children and no Eval
// function; its value only changes via SetValue.
func NewLeaf(typeName string, initial *nbobject.Object) *Cell {
	if initial == nil {
		initial = nbobject.Placeholder
	}
	return &Cell{TypeName: typeName, value: initial, mode: ModeEnabled}
}

// NewCondition creates a condition cell wired to its children, with its
// Level derived from theirs. The cell starts enabled and disabled-aware
// callers should call Disable() immediately after construction.
func NewCondition(typeName string, eval EvalFunc, children ...*Cell) *Cell {
	c := &Cell{TypeName: typeName, Eval: eval, value: nbobject.Unknown, mode: ModeEnabled}
	if len(children) > 0 {
		c.Left = children[0]
	}
	if len(children) > 1 {
		c.Right = children[1]
	}
	if len(children) > 2 {
		c.Kids = append(c.Kids, children[2:]...)
	}
	maxLevel := 0
	for _, child := range children {
		if child == nil {
			continue
		}
		if child.Level > maxLevel {
			maxLevel = child.Level
		}
	}
	c.Level = maxLevel + 1
	for _, child := range children {
		if child != nil {
			child.Subscribe(c)
		}
	}
	return c
}

// NewConst creates a constant cell: one whose value never changes and
// whose TypeName is always "const". Constant folding produces these.
func NewConst(v *nbobject.Object) *Cell {
	return &Cell{TypeName: "const", value: v, mode: ModeEnabled}
}

// IsConstant reports whether c is a constant cell produced by NewConst.
func IsConstant(c *Cell) bool {
	return c != nil && c.TypeName == "const"
}

// NewLazyCondition builds a condition cell subscribed only to left; right
// is recorded (so Level accounts for it, preserving the level(C) >
// level(child) invariant even though right may never be subscribed) but
// is not auto-subscribed. This grounds the lazy `&&`/`||` operators
//, whose eval function attaches/detaches right's
// subscription dynamically via right.Subscribe(c)/right.Unsubscribe(c).
func NewLazyCondition(typeName string, eval EvalFunc, left, right *Cell) *Cell {
	c := &Cell{TypeName: typeName, Eval: eval, Left: left, Right: right, value: nbobject.Unknown, mode: ModeEnabled}
	maxLevel := left.Level
	if right.Level > maxLevel {
		maxLevel = right.Level
	}
	c.Level = maxLevel + 1
	left.Subscribe(c)
	return c
}

// RightAttached reports whether c is currently subscribed to c.Right,
// used by lazy operators to avoid redundant Subscribe/Unsubscribe calls.
func (c *Cell) RightAttached() bool {
	if c.Right == nil {
		return false
	}
	for _, s := range c.Right.Subscribers() {
		if s == c {
			return true
		}
	}
	return false
}

// Children returns every non-nil operand: Left, Right, then Kids in
// order. Used by hash-consing and by graph traversal.
func (c *Cell) Children() []*Cell {
	var out []*Cell
	if c.Left != nil {
		out = append(out, c.Left)
	}
	if c.Right != nil {
		out = append(out, c.Right)
	}
	out = append(out, c.Kids...)
	return out
}

// Value returns the cell's externally visible value: nbobject.Disabled
// when the cell is not enabled, otherwise the cached value.
func (c *Cell) Value() *nbobject.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode&ModeEnabled == 0 {
		return nbobject.Disabled
	}
	return c.value
}

// rawValue returns the cached value without the enabled check. Used
// internally by Recompute so a cell's own Eval can read its children's
// true last-known value even mid-cascade.
func (c *Cell) rawValue() *nbobject.Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// SetValue assigns a new cached value and reports whether it differs
// (by pointer identity, since all values are hash-consed/singleton) from
// the previous one. Callers that change a value must follow with
// Graph.Alert to fan the change out to subscribers.
func (c *Cell) SetValue(v *nbobject.Object) (changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed = c.value != v
	c.value = v
	return changed
}

// Recompute runs Eval (if any) and stores the result, reporting whether
// the stored value changed.
func (c *Cell) Recompute() (changed bool) {
	if c.Eval == nil {
		return false
	}
	return c.SetValue(c.Eval(c))
}

// Enabled reports whether the cell currently participates in reactions.
func (c *Cell) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode&ModeEnabled != 0
}

// Enable marks the cell enabled, running OnEnable the first time it
// transitions from disabled to enabled.
func (c *Cell) Enable() {
	c.mu.Lock()
	wasEnabled := c.mode&ModeEnabled != 0
	c.mode |= ModeEnabled
	c.mu.Unlock()
	if !wasEnabled && c.OnEnable != nil {
		c.OnEnable(c)
	}
}

// Disable marks the cell disabled; Value() reports nbobject.Disabled
// until Enable is called again.
func (c *Cell) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode &^= ModeEnabled
}

// markScheduled and clearScheduled are used by Graph's alert queue to
// avoid double-enqueuing a cell already pending in the current cycle.
func (c *Cell) markScheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode&ModeScheduled != 0 {
		return false
	}
	c.mode |= ModeScheduled
	return true
}

func (c *Cell) clearScheduled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode &^= ModeScheduled
}

// ArmTimer and DisarmTimer track whether a wall-clock alarm is currently
// registered against this cell; nbtimer sets and clears the flag as it
// arms, fires and cancels alarms (Arm cancels any earlier alarm first,
// so a cell is never double-armed).
func (c *Cell) ArmTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode |= ModeTimerArmed
}

func (c *Cell) DisarmTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode &^= ModeTimerArmed
}

func (c *Cell) TimerArmed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode&ModeTimerArmed != 0
}

// Subscribe registers sub to be re-evaluated whenever c's value changes.
func (c *Cell) Subscribe(sub *Cell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		if s == sub {
			return
		}
	}
	c.subs = append(c.subs, sub)
}

// Unsubscribe removes sub from c's subscriber list.
func (c *Cell) Unsubscribe(sub *Cell) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// Subscribers returns a snapshot of the cells currently subscribed to c.
func (c *Cell) Subscribers() []*Cell {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Cell, len(c.subs))
	copy(out, c.subs)
	return out
}
