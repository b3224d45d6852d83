package nbtimer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

func TestArmFiresAndDelivers(t *testing.T) {
	d := New(time.Now)
	d.Start()
	defer d.Stop()

	cell := nbcell.NewLeaf("schedule", nbobject.False)
	fired := make(chan *nbcell.Cell, 1)
	d.Deliver = func(c *nbcell.Cell) { fired <- c }

	d.Arm(cell, time.Now().Add(1*time.Second))
	assert.True(t, d.Armed(cell))

	select {
	case got := <-fired:
		assert.Same(t, cell, got)
	case <-time.After(3 * time.Second):
		t.Fatal("timer never fired")
	}
	assert.False(t, d.Armed(cell), "cell is disarmed once its one-shot alarm has fired")
}

func TestCancelPreventsDelivery(t *testing.T) {
	d := New(time.Now)
	d.Start()
	defer d.Stop()

	cell := nbcell.NewLeaf("schedule", nbobject.False)
	fired := make(chan *nbcell.Cell, 1)
	d.Deliver = func(c *nbcell.Cell) { fired <- c }

	d.Arm(cell, time.Now().Add(1*time.Second))
	d.Cancel(cell)
	assert.False(t, d.Armed(cell))

	select {
	case <-fired:
		t.Fatal("cancelled timer must not fire")
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestReArmReplacesPendingAlarm(t *testing.T) {
	d := New(time.Now)
	d.Start()
	defer d.Stop()

	cell := nbcell.NewLeaf("schedule", nbobject.False)
	fired := make(chan time.Time, 2)
	start := time.Now()
	d.Deliver = func(c *nbcell.Cell) { fired <- time.Now() }

	d.Arm(cell, start.Add(5*time.Second))
	d.Arm(cell, start.Add(1*time.Second)) // re-arm to a sooner instant

	select {
	case got := <-fired:
		require.True(t, got.Sub(start) < 3*time.Second, "re-arm must replace, not queue alongside, the earlier alarm")
	case <-time.After(3 * time.Second):
		t.Fatal("re-armed timer never fired")
	}
}

func TestArmDurationUsesDispatcherClock(t *testing.T) {
	fixed := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	d := New(func() time.Time { return fixed })
	d.Start()
	defer d.Stop()

	cell := nbcell.NewLeaf("schedule", nbobject.False)
	d.ArmDuration(cell, 1*time.Second)
	assert.True(t, d.Armed(cell))
}
