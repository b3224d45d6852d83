package nbcell

import (
	"fmt"
	"sort"
	"sync"
)

// Graph owns the hash-consing table and the level-ordered alert queue
// that together implement the reaction protocol. Every
// condition cell is created through Graph.UseCondition so structurally
// identical cells collapse to a single instance, and every value change
// is fanned out through Graph.Alert, which defers actual re-evaluation
// to Drain so no cell reacts before all of its same-or-lower-level
// dependencies have settled.
type Graph struct {
	mu       sync.Mutex
	hashcons map[string]*Cell
	pending  map[int][]*Cell
}

// NewGraph creates an empty cell graph.
func NewGraph() *Graph {
	return &Graph{
		hashcons: make(map[string]*Cell),
		pending:  make(map[int][]*Cell),
	}
}

// hashKey builds the hash-consing key for a condition of the given type
// over the given children. Children are themselves already hash-consed
// (or leaves), so their pointer identity is a stable, cheap key
// component, folding structurally identical subexpressions into one
// cell.
func hashKey(typeName string, children []*Cell) string {
	key := typeName
	for _, c := range children {
		key += fmt.Sprintf("|%p", c)
	}
	return key
}

// UseCondition returns the existing cell for (typeName, children) if one
// was already constructed, otherwise builds and registers a new one via
// eval. This is the hash-consing entry point: two rule files that both
// write `a & b` share the exact same condition cell and its cached
// value, giving structurally identical expressions identity-based
// equality.
func (g *Graph) UseCondition(typeName string, eval EvalFunc, children ...*Cell) *Cell {
	key := hashKey(typeName, children)

	g.mu.Lock()
	if c, ok := g.hashcons[key]; ok {
		g.mu.Unlock()
		return c
	}
	g.mu.Unlock()

	c := NewCondition(typeName, eval, children...)
	c.Recompute()

	g.mu.Lock()
	if existing, ok := g.hashcons[key]; ok {
		g.mu.Unlock()
		return existing
	}
	g.hashcons[key] = c
	g.mu.Unlock()
	return c
}

// Alert enqueues c's subscribers for re-evaluation in the cycle driven
// by the next Drain call. It does not itself recompute anything.
func (g *Graph) Alert(c *Cell) {
	for _, sub := range c.Subscribers() {
		g.enqueue(sub)
	}
}

// AlertCell enqueues a single cell directly, used when a leaf's value is
// assigned externally (Engine.Assert) rather than via a condition's own
// value change.
func (g *Graph) AlertCell(c *Cell) {
	g.enqueue(c)
}

func (g *Graph) enqueue(c *Cell) {
	if !c.markScheduled() {
		return
	}
	g.mu.Lock()
	g.pending[c.Level] = append(g.pending[c.Level], c)
	g.mu.Unlock()
}

// Drain processes every pending cell in ascending level order,
// recomputing each and cascading Alert to its subscribers when its
// value changes, until the queue is empty. It returns the number of
// cells actually recomputed.
func (g *Graph) Drain() int {
	evaluated := 0
	for {
		level, cells, ok := g.popLowestLevel()
		if !ok {
			return evaluated
		}
		_ = level
		for _, c := range cells {
			c.clearScheduled()
			evaluated++
			// Leaf/term-storage cells have no Eval: their value was
			// already assigned by the caller before being enqueued
			// (Engine.Assert), so being drained is itself the signal
			// to cascade, rather than a recomputed-and-changed result.
			if c.Eval == nil {
				g.Alert(c)
			} else if c.Recompute() {
				g.Alert(c)
			}
		}
	}
}

func (g *Graph) popLowestLevel() (level int, cells []*Cell, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.pending) == 0 {
		return 0, nil, false
	}
	levels := make([]int, 0, len(g.pending))
	for l := range g.pending {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	lowest := levels[0]
	cells = g.pending[lowest]
	delete(g.pending, lowest)
	return lowest, cells, true
}

// Pending reports whether any cell is currently queued for reaction.
func (g *Graph) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending) > 0
}
