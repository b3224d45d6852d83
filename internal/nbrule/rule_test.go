package nbrule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbcond"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

func newTestScheduler() (*Scheduler, *nbcell.Graph) {
	g := nbcell.NewGraph()
	s := NewScheduler(g, nbcond.NewChangeTracker())
	return s, g
}

// An `on` rule fires once per False/Unknown->True transition of its
// condition, and never on a True-to-True re-publish.
func TestOnRuleFiresOnceOnTransitionIntoTrue(t *testing.T) {
	s, g := newTestScheduler()
	cond := nbcell.NewLeaf("term", nbobject.False)
	r := s.NewOnRule("r", cond, nil, nil, "", 0)

	fires := 0
	r.Action.AfterFire = func() { fires++ }

	cond.SetValue(nbobject.True)
	g.AlertCell(cond)
	stats := s.React()
	assert.Equal(t, 1, stats.ActionsFired)
	assert.Equal(t, 1, fires)

	// Re-publishing the same True value is not a transition; no refire.
	cond.SetValue(nbobject.True)
	g.AlertCell(cond)
	stats = s.React()
	assert.Equal(t, 0, stats.ActionsFired)

	cond.SetValue(nbobject.False)
	g.AlertCell(cond)
	s.React()
	cond.SetValue(nbobject.True)
	g.AlertCell(cond)
	stats = s.React()
	assert.Equal(t, 1, stats.ActionsFired, "a second False->True transition fires again")
	assert.Equal(t, 2, fires)
}

// A rule fired while its action is already Scheduled/Processing is
// suppressed and the action marked Error, instead of double-firing.
func TestOnRuleSuppressesRefireWhileInFlight(t *testing.T) {
	s, _ := newTestScheduler()
	cond := nbcell.NewLeaf("term", nbobject.False)
	r := s.NewOnRule("r", cond, nil, nil, "", 0)

	s.fire(r)
	assert.Equal(t, StatusScheduled, r.Action.status())
	s.fire(r)
	assert.Equal(t, StatusError, r.Action.status(), "second fire while scheduled is suppressed and marked Error")
}

// An `if` rule fires on every React cycle while its condition holds
// true, not just on the transition edge.
func TestIfRuleFiresEveryCycleWhileTrue(t *testing.T) {
	s, g := newTestScheduler()
	cond := nbcell.NewLeaf("term", nbobject.False)
	_ = s.NewIfRule("r", cond, nil, nil, "", 0)

	cond.SetValue(nbobject.True)
	g.AlertCell(cond)
	stats := s.React()
	assert.Equal(t, 1, stats.ActionsFired)

	// Condition is still True; an unrelated cycle still fires the if-rule.
	other := nbcell.NewLeaf("term", nbobject.Real(0))
	other.SetValue(nbobject.Real(1))
	g.AlertCell(other)
	stats = s.React()
	assert.Equal(t, 1, stats.ActionsFired, "if-rule fires again while condition remains true")

	cond.SetValue(nbobject.False)
	g.AlertCell(cond)
	stats = s.React()
	assert.Equal(t, 0, stats.ActionsFired, "if-rule stops firing once condition is false")
}

// A `when` rule's assertion runs, then the rule never fires again even
// if its condition cycles back to true.
func TestWhenRuleSelfUndefinesAfterOneFire(t *testing.T) {
	s, g := newTestScheduler()
	cond := nbcell.NewLeaf("term", nbobject.False)
	undefined := false
	r := s.NewWhenRule("r", cond, nil, nil, "", 0, func() { undefined = true })
	_ = r

	cond.SetValue(nbobject.True)
	g.AlertCell(cond)
	stats := s.React()
	assert.Equal(t, 1, stats.ActionsFired)
	assert.True(t, undefined)

	cond.SetValue(nbobject.False)
	g.AlertCell(cond)
	s.React()
	cond.SetValue(nbobject.True)
	g.AlertCell(cond)
	stats = s.React()
	assert.Equal(t, 0, stats.ActionsFired, "when rule must not fire a second time")
}
