package nbtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(offset int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(offset) * 24 * time.Hour)
}

func TestUnionCoalescesAdjacent(t *testing.T) {
	a := Single(day(0), day(1))
	b := Single(day(1), day(2))
	u := Union(a, b)
	if assert.Len(t, u.Intervals, 1) {
		assert.True(t, u.Intervals[0].Start.Equal(day(0)))
		assert.True(t, u.Intervals[0].End.Equal(day(2)))
	}
}

func TestUnionPreserveKeepsAdjacentDistinct(t *testing.T) {
	a := Single(day(0), day(1))
	b := Single(day(1), day(2))
	u := UnionPreserve(a, b)
	assert.Len(t, u.Intervals, 2)
}

func TestIntersectOfUnionDistributesOverUnion(t *testing.T) {
	// intersect(union(A,B), C) must equal union(intersect(A,C), intersect(B,C))
	a := Single(day(0), day(2))
	b := Single(day(3), day(5))
	c := Single(day(1), day(4))

	lhs := Intersect(Union(a, b), c)
	rhs := Union(Intersect(a, c), Intersect(b, c))

	assert.Equal(t, lhs.Intervals, rhs.Intervals)
}

func TestComplementOfComplementIsIdentity(t *testing.T) {
	begin, end := day(0), day(10)
	a := BFI{Intervals: []Interval{{Start: day(1), End: day(3)}, {Start: day(5), End: day(7)}}}

	twice := Complement(Complement(a, begin, end), begin, end)
	assert.Equal(t, a.Intervals, twice.Intervals)
}

func TestIntersectWithComplementIsEmpty(t *testing.T) {
	begin, end := day(0), day(10)
	a := Single(day(2), day(6))
	comp := Complement(a, begin, end)
	assert.True(t, Intersect(a, comp).IsEmpty())
}

func TestContainsAndNextBoundaryAfter(t *testing.T) {
	b := BFI{Intervals: []Interval{{Start: day(1), End: day(2)}, {Start: day(4), End: day(5)}}}
	assert.True(t, b.Contains(day(1)))
	assert.False(t, b.Contains(day(2)))
	assert.False(t, b.Contains(day(3)))

	next, ok := b.NextBoundaryAfter(day(1))
	assert.True(t, ok)
	assert.True(t, next.Equal(day(2)))

	next, ok = b.NextBoundaryAfter(day(5))
	assert.False(t, ok)
	_ = next
}

func TestEmptyIntervalsAreDropped(t *testing.T) {
	// Single with start >= end yields the empty set (Single must drop
	// degenerate ranges rather than propagate them).
	assert.True(t, Single(day(5), day(5)).IsEmpty())
	assert.True(t, Single(day(5), day(4)).IsEmpty())
}
