package nbcond

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

func TestAndThreeValued(t *testing.T) {
	g := nbcell.NewGraph()
	x := nbcell.NewLeaf("term", nbobject.Unknown)
	y := nbcell.NewLeaf("term", nbobject.True)

	z := And(g, x, y)
	assert.Same(t, nbobject.Unknown, z.Value())

	x.SetValue(nbobject.False)
	g.AlertCell(x)
	g.Drain()
	assert.Same(t, nbobject.False, z.Value())
}

func TestNotRoundTrip(t *testing.T) {
	g := nbcell.NewGraph()
	a := nbcell.NewLeaf("term", nbobject.True)
	assert.Same(t, nbobject.False, Not(g, a).Value())
}

func TestConstantFolding(t *testing.T) {
	g := nbcell.NewGraph()
	c1 := nbcell.NewConst(nbobject.True)
	c2 := nbcell.NewConst(nbobject.False)
	result := And(g, c1, c2)
	require.True(t, nbcell.IsConstant(result))
	assert.Same(t, nbobject.False, result.Value())
}

func TestLazyAndDoesNotSubscribeRightUntilNeeded(t *testing.T) {
	left := nbcell.NewLeaf("term", nbobject.False)
	expensive := nbcell.NewLeaf("term", nbobject.True)

	g := LazyAnd(left, expensive)
	assert.Same(t, nbobject.False, g.Value())
	assert.Empty(t, expensive.Subscribers())

	left.SetValue(nbobject.True)
	g.Recompute()
	assert.Same(t, nbobject.True, g.Value())
	assert.Len(t, expensive.Subscribers(), 1)
}

func TestRelationalCrossTypeUnknown(t *testing.T) {
	graph := nbcell.NewGraph()
	a := nbcell.NewLeaf("term", nbobject.Real(1))
	b := nbcell.NewLeaf("term", nbobject.String("1"))
	cell := Relational(graph, Eq, a, b)
	assert.Same(t, nbobject.Unknown, cell.Value())
}

func TestChangeCellPulsesThenResets(t *testing.T) {
	g := nbcell.NewGraph()
	tracker := NewChangeTracker()
	a := nbcell.NewLeaf("term", nbobject.Real(1))
	ch := NewChange(g, tracker, a)
	assert.Same(t, nbobject.False, ch.Value())

	a.SetValue(nbobject.Real(2))
	g.AlertCell(a)
	g.Drain()
	assert.Same(t, nbobject.True, ch.Value())

	tracker.DrainResets()
	assert.Same(t, nbobject.False, ch.Value())
}

func TestFlipFlopTogglesOnPulses(t *testing.T) {
	g := nbcell.NewGraph()
	set := nbcell.NewLeaf("term", nbobject.False)
	reset := nbcell.NewLeaf("term", nbobject.False)
	ff := FlipFlop(g, set, reset)
	assert.Same(t, nbobject.Unknown, ff.Value())

	set.SetValue(nbobject.True)
	g.AlertCell(set)
	g.Drain()
	assert.Same(t, nbobject.True, ff.Value())

	reset.SetValue(nbobject.True)
	g.AlertCell(reset)
	g.Drain()
	assert.Same(t, nbobject.False, ff.Value())
}

func TestCaptureMonitorDoesNotSubscribe(t *testing.T) {
	watched := nbcell.NewLeaf("term", nbobject.True)
	m := NewCaptureMonitor(watched)
	assert.Same(t, nbobject.True, m.Sample())
	assert.Empty(t, watched.Subscribers())
}
