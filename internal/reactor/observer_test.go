package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trettevik/nodebrain/internal/nbcell"
)

type recordingObserver struct {
	NopObserver
	enabled  int
	disabled int
	fired    []string
}

func (r *recordingObserver) OnCellEnabled(*nbcell.Cell)  { r.enabled++ }
func (r *recordingObserver) OnCellDisabled(*nbcell.Cell) { r.disabled++ }
func (r *recordingObserver) OnActionFired(id string, err error) {
	r.fired = append(r.fired, id)
}

func TestManagerFansOutToAllObservers(t *testing.T) {
	m := NewManager()
	a := &recordingObserver{}
	b := &recordingObserver{}
	m.Add(a)
	m.Add(b)

	c := nbcell.NewLeaf("term", nil)
	m.NotifyCellEnabled(c)
	m.NotifyCellDisabled(c)
	m.NotifyActionFired("act-1", nil)

	assert.Equal(t, 1, a.enabled)
	assert.Equal(t, 1, a.disabled)
	assert.Equal(t, []string{"act-1"}, a.fired)
	assert.Equal(t, 1, b.enabled)
}

func TestManagerRemove(t *testing.T) {
	m := NewManager()
	a := &recordingObserver{}
	m.Add(a)
	m.Remove(a)

	c := nbcell.NewLeaf("term", nil)
	m.NotifyCellEnabled(c)
	assert.Equal(t, 0, a.enabled)
}

func TestCycleStatsAdd(t *testing.T) {
	s := CycleStats{CellsEvaluated: 1, ActionsFired: 2}
	s.Add(CycleStats{CellsEvaluated: 3, TimersArmed: 1})
	assert.Equal(t, 4, s.CellsEvaluated)
	assert.Equal(t, 2, s.ActionsFired)
	assert.Equal(t, 1, s.TimersArmed)
}
