package nbparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbcond"
	"github.com/trettevik/nodebrain/internal/nbobject"
	"github.com/trettevik/nodebrain/internal/nbrule"
)

func newTestEnv() *Env {
	g := nbcell.NewGraph()
	changes := nbcond.NewChangeTracker()
	return &Env{
		Graph:     g,
		Root:      nbcell.NewRoot(),
		Changes:   changes,
		Scheduler: nbrule.NewScheduler(g, changes),
		Clock:     time.Now,
		Horizon:   time.Hour,
	}
}

func parseAll(t *testing.T, env *Env, src string) []ParseResult {
	t.Helper()
	p, err := New(src, env)
	require.NoError(t, err)
	res, err := p.ParseAll()
	require.NoError(t, err)
	return res
}

// `*`/`/` bind tighter than `+`/`-`, which bind tighter than the
// relational operators.
func TestArithmeticPrecedence(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `define s cell 2 + 3 * 4;`)
	assert.Equal(t, 14.0, env.Term("s").Cell.Value().Real())
}

// `&` binds tighter than `|`.
func TestBooleanPrecedence(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `define a cell true; define b cell false; define c cell false;
		define z cell a | b & c;`)
	assert.Same(t, nbobject.True, env.Term("z").Cell.Value())
}

// Unary minus binds tighter than the additive operators.
func TestUnaryBindsTighterThanAdditive(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `define x cell 3; define z cell -x + 1;`)
	assert.Equal(t, -2.0, env.Term("z").Cell.Value().Real())
}

// The `?e` prefix operator (is-Unknown) binds tighter than `&`.
func TestIsUnknownBindsTighterThanAnd(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `define x cell ?; define y cell true; define z cell ?x & y;`)
	assert.Same(t, nbobject.True, env.Term("z").Cell.Value())
}

func TestRegexMatchOperator(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `define s cell "hello world"; define z cell s ~ "^hello";`)
	assert.Same(t, nbobject.True, env.Term("z").Cell.Value())
}

// Scenario S1: asserting two leaf cells propagates through an
// arithmetic cell and fires a dependent `on` rule exactly once.
func TestParserScenarioBasicPropagation(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `
		define a cell 0;
		define b cell 0;
		define s cell a + b;
		define r on(s > 3);
	`)
	res := parseAll(t, env, `assert a=2, b=2;`)
	require.Len(t, res, 1)
	stats := env.Scheduler.React()
	assert.Equal(t, 4.0, env.Term("s").Cell.Value().Real())
	assert.Equal(t, 1, stats.ActionsFired)
}

// Scenario S6: two `on` rules firing from the same stimulus run in
// priority order.
func TestParserScenarioActionPriority(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `
		define a cell 0;
		define log cell "";
		define r1 on(a=1)[5] log="r1";
		define r2 on(a=1)[9] log="r2";
	`)
	parseAll(t, env, `assert a=1;`)
	stats := env.Scheduler.React()
	assert.Equal(t, 2, stats.ActionsFired)
	assert.Equal(t, "r1", env.Term("log").Cell.Value().Str())
}

// An `if` rule fires on every React cycle while its condition holds,
// parsed straight from surface syntax.
func TestParserIfRuleFiresEveryCycleWhileTrue(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `
		define a cell false;
		define b cell 0;
		define r if(a) b=1;
	`)
	parseAll(t, env, `assert a=true;`)
	stats := env.Scheduler.React()
	assert.Equal(t, 1, stats.ActionsFired)

	parseAll(t, env, `assert b=2;`)
	stats = env.Scheduler.React()
	assert.Equal(t, 1, stats.ActionsFired, "if-rule fires again while its condition is still true")

	parseAll(t, env, `assert a=false;`)
	stats = env.Scheduler.React()
	assert.Equal(t, 0, stats.ActionsFired)
}

// `show` and `undefine` resolve (and create, if absent) a dotted term
// path without constructing a rule or a cell definition.
func TestShowAndUndefineStatements(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `define a cell 1;`)
	res := parseAll(t, env, `show a;`)
	assert.Equal(t, "show", res[0].Kind)
	assert.Equal(t, 1.0, res[0].Term.Cell.Value().Real())

	res = parseAll(t, env, `undefine a;`)
	assert.Equal(t, "undefine", res[0].Kind)
	_, ok := env.Root.Child("a")
	assert.False(t, ok, "undefine removes the term from its parent")
}

// A syntax error is location-tagged and leaves no partial cell
// construction from that statement reachable by name.
func TestSyntaxErrorIsLocationTagged(t *testing.T) {
	env := newTestEnv()
	p, err := New("define a cell ;", env)
	require.NoError(t, err)
	_, err = p.ParseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	_, ok := env.Root.Child("a")
	assert.False(t, ok, "the failed define leaves no term named a")
}

// A schedule cell's Dispatcher field may be nil — time-condition
// parsing still compiles the expression and computes its current-
// instant value; only live re-arming needs a dispatcher.
func TestTimeExprParsesWithoutDispatcher(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `define c cell ~(h(8_17));`)
	assert.NotNil(t, env.Term("c").Cell.Value())
}

// `^` is the flip-flop operator: it sets on a rising pulse of its left
// operand and resets on a rising pulse of its right operand, independent
// of whether either operand is itself still true.
func TestFlipFlopOperator(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `
		define s cell false;
		define r cell false;
		define z cell s ^ r;
	`)
	parseAll(t, env, `assert s=true;`)
	env.Scheduler.React()
	assert.Same(t, nbobject.True, env.Term("z").Cell.Value())

	parseAll(t, env, `assert r=true;`)
	env.Scheduler.React()
	assert.Same(t, nbobject.False, env.Term("z").Cell.Value())
}

// `~= a` pulses True for the reaction cycle a's value changes in, then
// resets to False once the cycle's change cells are drained.
func TestChangeOperatorPulsesDuringCycleThenResets(t *testing.T) {
	env := newTestEnv()
	res := parseAll(t, env, `
		define a cell 0;
		define pulsed cell false;
		define r on(~=a) pulsed=true;
	`)
	parseAll(t, env, `assert a=1;`)
	stats := env.Scheduler.React()
	assert.Equal(t, 1, stats.ActionsFired, "the on-rule fires from the change cell's pulse")
	assert.Same(t, nbobject.True, env.Term("pulsed").Cell.Value())
	assert.Same(t, nbobject.False, res[2].Rule.Cond.Value(), "the change cell is back to False once React has drained its resets")
}

// `a~^(10s)` holds True for the armed duration starting at a's rising
// edge into True, and reverts immediately on a's own counter-edge
// rather than waiting out the timer. Dispatcher is nil here, so only
// the edge-detection half (not the timer firing) is exercised.
func TestDelayOperatorHoldsOnRisingEdge(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `
		define a cell false;
		define z cell a~^(10s);
	`)
	assert.Same(t, nbobject.False, env.Term("z").Cell.Value(), "no transition has happened yet")

	parseAll(t, env, `assert a=true;`)
	env.Scheduler.React()
	assert.Same(t, nbobject.True, env.Term("z").Cell.Value())

	parseAll(t, env, `assert a=false;`)
	env.Scheduler.React()
	assert.Same(t, nbobject.False, env.Term("z").Cell.Value(), "a counter-edge reverts z immediately")
}

// recordingSink is a CommandSink that records every command handed to
// it, standing in for the external execCommand collaborator (spec §6).
type recordingSink struct {
	commands []string
}

func (s *recordingSink) Exec(_ *nbcell.Term, command string) error {
	s.commands = append(s.commands, command)
	return nil
}

// A rule's `: <command>` tail is raw, untokenized text read starting
// immediately after the ':' — not one token late, which would silently
// drop the command's first word. This drives a real command tail all
// the way through to the external sink.
func TestParserRuleCommandTailReachesSink(t *testing.T) {
	env := newTestEnv()
	sink := &recordingSink{}
	env.Scheduler.Sink = sink

	parseAll(t, env, `
		define a cell 0;
		define r on(a=1): echo hi;
	`)
	parseAll(t, env, `assert a=1;`)
	stats := env.Scheduler.React()

	assert.Equal(t, 1, stats.ActionsFired)
	require.Len(t, sink.commands, 1)
	assert.Equal(t, "echo hi", sink.commands[0], "the command's first word must not be dropped")
}

// A command tail may itself follow an assertion list before the colon.
func TestParserRuleCommandTailAfterAssertions(t *testing.T) {
	env := newTestEnv()
	sink := &recordingSink{}
	env.Scheduler.Sink = sink

	parseAll(t, env, `
		define a cell 0;
		define b cell 0;
		define r on(a=1) b=2: notify ops;
	`)
	parseAll(t, env, `assert a=1;`)
	env.Scheduler.React()

	assert.Equal(t, 2.0, env.Term("b").Cell.Value().Real())
	require.Len(t, sink.commands, 1)
	assert.Equal(t, "notify ops", sink.commands[0])
}

// `a~^!(5m)` holds False for the armed duration starting at a's edge
// into False.
func TestDelayFalseOperatorHoldsOnFallingEdge(t *testing.T) {
	env := newTestEnv()
	parseAll(t, env, `
		define a cell true;
		define z cell a~^!(5m);
	`)
	parseAll(t, env, `assert a=false;`)
	env.Scheduler.React()
	assert.Same(t, nbobject.False, env.Term("z").Cell.Value())
}
