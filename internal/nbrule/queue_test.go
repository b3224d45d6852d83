package nbrule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestActionQueuePriorityThenFIFO checks that action queue draining is
// stable with respect to priority, then insertion order for ties.
func TestActionQueuePriorityThenFIFO(t *testing.T) {
	q := NewActionQueue()
	low := NewAction(nil, nil, "low", 1)
	high := NewAction(nil, nil, "high", 9)
	tieFirst := NewAction(nil, nil, "tie-first", 5)
	tieSecond := NewAction(nil, nil, "tie-second", 5)

	q.Schedule(low)
	q.Schedule(high)
	q.Schedule(tieFirst)
	q.Schedule(tieSecond)

	require.Equal(t, 4, q.Len())
	assert.Same(t, high, q.Pop())
	assert.Same(t, tieFirst, q.Pop())
	assert.Same(t, tieSecond, q.Pop())
	assert.Same(t, low, q.Pop())
	assert.Nil(t, q.Pop())
	assert.True(t, q.Empty())
}

func TestScheduleMarksActionScheduled(t *testing.T) {
	q := NewActionQueue()
	a := NewAction(nil, nil, "", 0)
	assert.Equal(t, StatusReady, a.status())
	q.Schedule(a)
	assert.Equal(t, StatusScheduled, a.status())
}
