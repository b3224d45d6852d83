package nbcond

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

// Notify recomputes and alerts only the comparison cells keyed on the
// old and new values of the variable, not every registered cell.
func TestAxonNotifiesOnlyAffectedCells(t *testing.T) {
	g := nbcell.NewGraph()
	variable := nbcell.NewLeaf("term", nbobject.Real(1))

	one := nbcell.NewLeaf("const", nbobject.Real(1))
	two := nbcell.NewLeaf("const", nbobject.Real(2))
	three := nbcell.NewLeaf("const", nbobject.Real(3))

	eqOne := Relational(g, Eq, variable, one)
	eqTwo := Relational(g, Eq, variable, two)
	eqThree := Relational(g, Eq, variable, three)

	ax := NewAxon()
	ax.Register(nbobject.Real(1), eqOne)
	ax.Register(nbobject.Real(2), eqTwo)
	ax.Register(nbobject.Real(3), eqThree)

	assert.Same(t, nbobject.True, eqOne.Value())
	assert.Same(t, nbobject.False, eqTwo.Value())

	variable.SetValue(nbobject.Real(2))
	ax.Notify(g, nbobject.Real(1), nbobject.Real(2))
	g.Drain()

	assert.Same(t, nbobject.False, eqOne.Value())
	assert.Same(t, nbobject.True, eqTwo.Value())
	assert.Same(t, nbobject.False, eqThree.Value(), "eqThree was never touched by Notify but stays correct")
}

func TestAxonUnregisterRemovesCell(t *testing.T) {
	g := nbcell.NewGraph()
	variable := nbcell.NewLeaf("term", nbobject.Real(1))
	one := nbcell.NewLeaf("const", nbobject.Real(1))
	eqOne := Relational(g, Eq, variable, one)

	ax := NewAxon()
	ax.Register(nbobject.Real(1), eqOne)
	ax.Unregister(nbobject.Real(1), eqOne)

	variable.SetValue(nbobject.Real(5))
	ax.Notify(g, nbobject.Real(1), nbobject.Real(5))
	g.Drain()
	assert.Same(t, nbobject.True, eqOne.Value(), "eqOne was never recomputed by Notify after unregister")
}
