package nbcell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trettevik/nodebrain/internal/nbobject"
)

func andEval(c *Cell) *nbobject.Object {
	l, r := c.Left.Value(), c.Right.Value()
	if l == nbobject.False || r == nbobject.False {
		return nbobject.False
	}
	if l == nbobject.True && r == nbobject.True {
		return nbobject.True
	}
	return nbobject.Unknown
}

func TestLevelDerivedFromChildren(t *testing.T) {
	a := NewLeaf("term", nbobject.True)
	b := NewLeaf("term", nbobject.False)
	require.Equal(t, 0, a.Level)

	and1 := NewCondition("and", andEval, a, b)
	assert.Equal(t, 1, and1.Level)

	and2 := NewCondition("and", andEval, and1, a)
	assert.Equal(t, 2, and2.Level)
}

func TestDisabledCellReportsDisabledValue(t *testing.T) {
	c := NewLeaf("term", nbobject.True)
	assert.Same(t, nbobject.True, c.Value())
	c.Disable()
	assert.Same(t, nbobject.Disabled, c.Value())
	c.Enable()
	assert.Same(t, nbobject.True, c.Value())
}

func TestOnEnableFiresOnlyOnTransition(t *testing.T) {
	c := NewLeaf("term", nbobject.True)
	c.Disable()
	count := 0
	c.OnEnable = func(*Cell) { count++ }
	c.Enable()
	c.Enable()
	assert.Equal(t, 1, count)
}

func TestGraphDrainCascadesLevelOrder(t *testing.T) {
	g := NewGraph()
	a := NewLeaf("term", nbobject.False)
	b := NewLeaf("term", nbobject.True)

	and1 := g.UseCondition("and", andEval, a, b)
	and2 := g.UseCondition("and", andEval, and1, b)

	assert.Same(t, nbobject.False, and1.Value())
	assert.Same(t, nbobject.False, and2.Value())

	a.SetValue(nbobject.True)
	g.AlertCell(a)
	evaluated := g.Drain()

	assert.Same(t, nbobject.True, and1.Value())
	assert.Same(t, nbobject.True, and2.Value())
	assert.GreaterOrEqual(t, evaluated, 2)
	assert.False(t, g.Pending())
}

func TestUseConditionHashConsesIdenticalStructure(t *testing.T) {
	g := NewGraph()
	a := NewLeaf("term", nbobject.True)
	b := NewLeaf("term", nbobject.False)

	c1 := g.UseCondition("and", andEval, a, b)
	c2 := g.UseCondition("and", andEval, a, b)
	assert.Same(t, c1, c2)

	c3 := g.UseCondition("and", andEval, b, a)
	assert.NotSame(t, c1, c3)
}

func TestTermResolve(t *testing.T) {
	root := NewRoot()
	a := root.Define("a", nil)
	b := a.Define("b", NewLeaf("term", nbobject.True))

	found, ok := root.Resolve([]string{"a", "b"})
	require.True(t, ok)
	assert.Same(t, b, found)
	assert.Equal(t, "a.b", b.Path())

	_, ok = root.Resolve([]string{"a", "missing"})
	assert.False(t, ok)
}
