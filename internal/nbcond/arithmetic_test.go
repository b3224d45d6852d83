package nbcond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

func TestArithmeticOps(t *testing.T) {
	g := nbcell.NewGraph()
	a := nbcell.NewLeaf("term", nbobject.Real(6))
	b := nbcell.NewLeaf("term", nbobject.Real(3))

	assert.Equal(t, 9.0, Add(g, a, b).Value().Real())
	assert.Equal(t, 3.0, Sub(g, a, b).Value().Real())
	assert.Equal(t, 18.0, Mul(g, a, b).Value().Real())
	assert.Equal(t, 2.0, Div(g, a, b).Value().Real())
	assert.Equal(t, -6.0, Neg(g, a).Value().Real())
}

func TestArithmeticPromotesNonNumericToUnknown(t *testing.T) {
	g := nbcell.NewGraph()
	a := nbcell.NewLeaf("term", nbobject.String("x"))
	b := nbcell.NewLeaf("term", nbobject.Real(1))

	assert.Same(t, nbobject.Unknown, Add(g, a, b).Value())
	assert.Same(t, nbobject.Unknown, Sub(g, a, b).Value())
	assert.Same(t, nbobject.Unknown, Mul(g, a, b).Value())
	assert.Same(t, nbobject.Unknown, Div(g, a, b).Value())
	assert.Same(t, nbobject.Unknown, Neg(g, a).Value())
}

func TestArithmeticUnknownOperandPromotesToUnknown(t *testing.T) {
	g := nbcell.NewGraph()
	a := nbcell.NewLeaf("term", nbobject.Unknown)
	b := nbcell.NewLeaf("term", nbobject.Real(1))

	assert.Same(t, nbobject.Unknown, Add(g, a, b).Value())
}

func TestDivisionByZeroIsUnknownNotInfinite(t *testing.T) {
	g := nbcell.NewGraph()
	a := nbcell.NewLeaf("term", nbobject.Real(1))
	zero := nbcell.NewLeaf("term", nbobject.Real(0))

	assert.Same(t, nbobject.Unknown, Div(g, a, zero).Value())
}

func TestArithmeticConstantFolding(t *testing.T) {
	g := nbcell.NewGraph()
	a := nbcell.NewConst(nbobject.Real(2))
	b := nbcell.NewConst(nbobject.Real(5))

	result := Add(g, a, b)
	require.True(t, nbcell.IsConstant(result))
	assert.Equal(t, 7.0, result.Value().Real())
}

func TestArithmeticPropagatesChange(t *testing.T) {
	g := nbcell.NewGraph()
	a := nbcell.NewLeaf("term", nbobject.Real(1))
	b := nbcell.NewLeaf("term", nbobject.Real(1))
	s := Add(g, a, b)
	assert.Equal(t, 2.0, s.Value().Real())

	a.SetValue(nbobject.Real(4))
	g.AlertCell(a)
	g.Drain()
	assert.Equal(t, 5.0, s.Value().Real())
}
