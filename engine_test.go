package nodebrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trettevik/nodebrain/internal/nbobject"
)

// Asserting two leaf cells propagates through an arithmetic cell and
// fires a dependent rule exactly once.
func TestScenarioBasicPropagation(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`
		define a cell 0;
		define b cell 0;
		define s cell a + b;
		define r on(s > 3);
	`)
	require.NoError(t, err)

	s := e.Term("s")
	assert.Equal(t, 0.0, s.Cell.Value().Real())

	_, err = e.Parse(`assert a=2, b=2;`)
	require.NoError(t, err)
	stats := e.Tick()

	assert.Equal(t, 4.0, s.Cell.Value().Real())
	assert.Equal(t, 1, stats.ActionsFired, "r must fire exactly once")
}

// An AND of Unknown and True starts Unknown, then resolves to False
// once the Unknown operand is asserted false.
func TestScenarioThreeValuedAnd(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`
		define x cell ?;
		define y cell true;
		define z cell x & y;
	`)
	require.NoError(t, err)

	z := e.Term("z")
	assert.Same(t, nbobject.Unknown, z.Cell.Value())

	_, err = e.Parse(`assert x=false;`)
	require.NoError(t, err)
	e.Tick()

	assert.Same(t, nbobject.False, z.Cell.Value())
}

// `&` only treats the False singleton as false: a real operand of 0 is
// neither True, False nor Unknown, so `1 & 0` resolves True, matching
// original_source/lib/nbcondition.c's evalAnd (`lobject==NB_OBJECT_FALSE`,
// never a numeric-zero check).
func TestScenarioThreeValuedAndRealOperandsAreNeverFalse(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`define z cell 1 & 0;`)
	require.NoError(t, err)

	assert.Same(t, nbobject.True, e.Term("z").Cell.Value())
}

// Lazy-and leaves its right operand unsubscribed while the left
// operand is false, then subscribes it once the left operand is true.
func TestScenarioLazyAndDoesNotSubscribe(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`
		define left cell false;
		define expensive cell 1;
		define g cell left && expensive;
	`)
	require.NoError(t, err)

	expensive := e.Term("expensive")
	assert.Empty(t, expensive.Cell.Subscribers(), "expensive must not be subscribed while g's left operand is false")

	_, err = e.Parse(`assert left=true;`)
	require.NoError(t, err)
	e.Tick()

	assert.Len(t, expensive.Cell.Subscribers(), 1, "expensive becomes subscribed once left is true")
}

// A when rule fires once on its condition's first transition into
// True, then never fires again even after the condition cycles back.
func TestScenarioWhenRuleFiresOnce(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`
		define a cell 0;
		define b cell 0;
		define r when(a=1) b=2;
	`)
	require.NoError(t, err)

	_, err = e.Parse(`assert a=1;`)
	require.NoError(t, err)
	stats := e.Tick()
	assert.Equal(t, 1, stats.ActionsFired)

	b := e.Term("b")
	assert.Equal(t, 2.0, b.Cell.Value().Real())

	_, err = e.Parse(`assert a=0;`)
	require.NoError(t, err)
	e.Tick()
	_, err = e.Parse(`assert a=1;`)
	require.NoError(t, err)
	stats = e.Tick()
	assert.Equal(t, 0, stats.ActionsFired, "when rule must not fire a second time")
}

// Two rules firing from the same stimulus run in priority order, with
// the higher-priority action executing first.
func TestScenarioActionPriorityOrdering(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`
		define a cell 0;
		define log cell "";
		define r1 on(a=1)[5] log="r1";
		define r2 on(a=1)[9] log="r2";
	`)
	require.NoError(t, err)

	_, err = e.Parse(`assert a=1;`)
	require.NoError(t, err)
	stats := e.Tick()

	assert.Equal(t, 2, stats.ActionsFired)
	log := e.Term("log")
	assert.Equal(t, "r1", log.Cell.Value().Str(), "higher-priority r2 fires first, then lower-priority r1 overwrites log")
}

func TestEngineAssertListEmptyIsNoOp(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`
		define a cell 0;
		define b cell 0;
		define s cell a + b;
	`)
	require.NoError(t, err)

	s := e.Term("s")
	e.AssertList(nil) // no-op call exercises the zero-assertion path
	assert.Equal(t, 0.0, s.Cell.Value().Real())
}

func TestEngineSubscribeNotifiesOnChange(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	_, err := e.Parse(`define a cell 0;`)
	require.NoError(t, err)

	var seen []float64
	e.Subscribe(e.Term("a"), func(path string, v *nbobject.Object) {
		seen = append(seen, v.Real())
	})

	_, err = e.Parse(`assert a=1;`)
	require.NoError(t, err)
	e.Tick()
	_, err = e.Parse(`assert a=2;`)
	require.NoError(t, err)
	e.Tick()

	require.Len(t, seen, 2)
	assert.Equal(t, []float64{1, 2}, seen)
}
