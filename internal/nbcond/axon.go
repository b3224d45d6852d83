package nbcond

import (
	"sync"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

// Axon is an optional equality-index optimization: when many
// `variable = constant` comparison cells watch the same variable, a
// naive reaction walks every comparison cell on each change. An Axon
// instead indexes comparison cells by the constant they test for, so a
// variable change only recomputes the (usually one) cell whose
// constant matches the old value and the (usually one) cell whose
// constant matches the new value — O(1) in the number of registered
// cells rather than O(n). This index is an accelerator only: Relational
// (relational.go) remains correct without it, and a graph that never
// constructs an Axon behaves identically.
type Axon struct {
	mu    sync.RWMutex
	index map[*nbobject.Object][]*nbcell.Cell
}

// NewAxon creates an empty index.
func NewAxon() *Axon {
	return &Axon{index: make(map[*nbobject.Object][]*nbcell.Cell)}
}

// Register associates cell with the constant it compares its variable
// operand against. Call this once per `variable = constant` cell built
// against a shared variable.
func (ax *Axon) Register(constant *nbobject.Object, cell *nbcell.Cell) {
	ax.mu.Lock()
	defer ax.mu.Unlock()
	ax.index[constant] = append(ax.index[constant], cell)
}

// Unregister removes cell from the index, used when a rule referencing
// it is undefined.
func (ax *Axon) Unregister(constant *nbobject.Object, cell *nbcell.Cell) {
	ax.mu.Lock()
	defer ax.mu.Unlock()
	list := ax.index[constant]
	for i, c := range list {
		if c == cell {
			ax.index[constant] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Notify takes the variable cell's old and new values from its caller
// whenever that value transitions; nothing in this package calls it,
// and the variable cell does not call it on its own. It recomputes and
// alerts only the
// registered comparison cells that could have changed as a result —
// those keyed on old (now False) and those keyed on new (now True) —
// instead of requiring the graph to walk every subscriber.
func (ax *Axon) Notify(g *nbcell.Graph, old, new *nbobject.Object) {
	ax.mu.RLock()
	affected := append(append([]*nbcell.Cell{}, ax.index[old]...), ax.index[new]...)
	ax.mu.RUnlock()

	for _, c := range affected {
		if c.Recompute() {
			g.Alert(c)
		}
	}
}
