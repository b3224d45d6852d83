// Package nbtime implements the time-condition engine: time
// expressions compile to a small tree of calendar functions and BFI
// (Binary Function of Integer) interval-set operators; casting a tree
// over a window produces the interval set during which the condition is
// true, and a schedule cell arms a one-shot wall-clock timer at the next
// interval boundary.
package nbtime

import (
	"sort"
	"time"
)

// Interval is a closed-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

func (iv Interval) overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// touches reports whether iv and other are adjacent or overlapping, so
// they can be coalesced into a single interval by Union.
func (iv Interval) touches(other Interval) bool {
	return !iv.Start.After(other.End) && !other.Start.After(iv.End)
}

// BFI is a set of intervals sorted by Start and non-overlapping. Most
// operations return it normalized, with adjacent intervals coalesced;
// UnionPreserve keeps merely adjacent intervals distinct.
type BFI struct {
	Intervals []Interval
}

// Empty returns the empty interval set.
func Empty() BFI { return BFI{} }

// Single returns a BFI holding exactly one interval.
func Single(start, end time.Time) BFI {
	if !start.Before(end) {
		return Empty()
	}
	return BFI{Intervals: []Interval{{Start: start, End: end}}}
}

// normalize sorts and coalesces overlapping/adjacent intervals.
func normalize(intervals []Interval) []Interval {
	filtered := intervals[:0:0]
	for _, iv := range intervals {
		if iv.Start.Before(iv.End) {
			filtered = append(filtered, iv)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Start.Before(filtered[j].Start) })

	out := []Interval{filtered[0]}
	for _, iv := range filtered[1:] {
		last := &out[len(out)-1]
		if iv.Start.After(last.End) {
			out = append(out, iv)
			continue
		}
		if iv.End.After(last.End) {
			last.End = iv.End
		}
	}
	return out
}

// Union implements `a | b`: the set-union, coalescing adjacent and
// overlapping intervals.
func Union(a, b BFI) BFI {
	merged := make([]Interval, 0, len(a.Intervals)+len(b.Intervals))
	merged = append(merged, a.Intervals...)
	merged = append(merged, b.Intervals...)
	return BFI{Intervals: normalize(merged)}
}

// UnionPreserve implements `a , b`: union preserving boundaries — only
// genuinely overlapping intervals are merged, merely-adjacent intervals
// stay distinct.
func UnionPreserve(a, b BFI) BFI {
	merged := make([]Interval, 0, len(a.Intervals)+len(b.Intervals))
	merged = append(merged, a.Intervals...)
	merged = append(merged, b.Intervals...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start.Before(merged[j].Start) })

	var out []Interval
	for _, iv := range merged {
		if !iv.Start.Before(iv.End) {
			continue
		}
		if len(out) > 0 && iv.overlaps(out[len(out)-1]) {
			last := &out[len(out)-1]
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return BFI{Intervals: out}
}

// Intersect implements `a & b`: the set-intersection.
func Intersect(a, b BFI) BFI {
	var out []Interval
	i, j := 0, 0
	for i < len(a.Intervals) && j < len(b.Intervals) {
		x, y := a.Intervals[i], b.Intervals[j]
		start := x.Start
		if y.Start.After(start) {
			start = y.Start
		}
		end := x.End
		if y.End.Before(end) {
			end = y.End
		}
		if start.Before(end) {
			out = append(out, Interval{Start: start, End: end})
		}
		if x.End.Before(y.End) {
			i++
		} else {
			j++
		}
	}
	return BFI{Intervals: normalize(out)}
}

// Complement implements `! a` within [domainBegin, domainEnd).
func Complement(a BFI, domainBegin, domainEnd time.Time) BFI {
	var out []Interval
	cursor := domainBegin
	for _, iv := range a.Intervals {
		start := iv.Start
		if start.Before(domainBegin) {
			start = domainBegin
		}
		end := iv.End
		if end.After(domainEnd) {
			end = domainEnd
		}
		if !start.Before(end) {
			continue
		}
		if cursor.Before(start) {
			out = append(out, Interval{Start: cursor, End: start})
		}
		if end.After(cursor) {
			cursor = end
		}
	}
	if cursor.Before(domainEnd) {
		out = append(out, Interval{Start: cursor, End: domainEnd})
	}
	return BFI{Intervals: normalize(out)}
}

// IsEmpty reports whether the interval set has no intervals.
func (b BFI) IsEmpty() bool { return len(b.Intervals) == 0 }

// Contains reports whether t falls within one of the set's intervals.
func (b BFI) Contains(t time.Time) bool {
	for _, iv := range b.Intervals {
		if iv.contains(t) {
			return true
		}
		if iv.Start.After(t) {
			break
		}
	}
	return false
}

// NextBoundaryAfter returns the next interval boundary (a start or an
// end) strictly after t, used by the timer dispatcher to arm the next
// wall-clock alarm for a schedule cell.
func (b BFI) NextBoundaryAfter(t time.Time) (time.Time, bool) {
	var best time.Time
	found := false
	consider := func(candidate time.Time) {
		if candidate.After(t) && (!found || candidate.Before(best)) {
			best = candidate
			found = true
		}
	}
	for _, iv := range b.Intervals {
		consider(iv.Start)
		consider(iv.End)
	}
	return best, found
}
