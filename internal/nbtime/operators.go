package nbtime

import (
	"sort"
	"time"
)

// Until implements `a # b` / `a _ b`: each a-interval stretched forward
// to the start of the next b-interval beginning at or after its own
// start (or left unstretched if no such b-interval exists).
func Until(a, b BFI) BFI {
	var out []Interval
	for _, av := range a.Intervals {
		end := av.End
		for _, bv := range b.Intervals {
			if !bv.Start.Before(av.Start) && bv.Start.After(end) {
				end = bv.Start
				break
			}
		}
		out = append(out, Interval{Start: av.Start, End: end})
	}
	return BFI{Intervals: normalize(out)}
}

// Reject implements `a ! b`: a-intervals with any overlap against b
// removed entirely.
func Reject(a, b BFI) BFI {
	var out []Interval
	for _, av := range a.Intervals {
		rejected := false
		for _, bv := range b.Intervals {
			if av.overlaps(bv) {
				rejected = true
				break
			}
		}
		if !rejected {
			out = append(out, av)
		}
	}
	return BFI{Intervals: out}
}

// Select implements `a = b` / `a . b`: a-intervals entirely contained
// within some b-interval.
func Select(a, b BFI) BFI {
	var out []Interval
	for _, av := range a.Intervals {
		for _, bv := range b.Intervals {
			if !av.Start.Before(bv.Start) && !av.End.After(bv.End) {
				out = append(out, av)
				break
			}
		}
	}
	return BFI{Intervals: out}
}

// StretchStart implements `a < b`: each b-interval's start is pulled
// back to the nearest preceding a-boundary (an a-interval start or end).
func StretchStart(a, b BFI) BFI {
	boundaries := boundariesOf(a)
	var out []Interval
	for _, bv := range b.Intervals {
		start := bv.Start
		for i := len(boundaries) - 1; i >= 0; i-- {
			if !boundaries[i].After(bv.Start) {
				start = boundaries[i]
				break
			}
		}
		out = append(out, Interval{Start: start, End: bv.End})
	}
	return BFI{Intervals: normalize(out)}
}

// StretchStop implements `a > b`: each a-interval's end is pushed
// forward to the nearest following b-boundary.
func StretchStop(a, b BFI) BFI {
	boundaries := boundariesOf(b)
	var out []Interval
	for _, av := range a.Intervals {
		end := av.End
		for _, bound := range boundaries {
			if bound.After(av.End) {
				end = bound
				break
			}
		}
		out = append(out, Interval{Start: av.Start, End: end})
	}
	return BFI{Intervals: normalize(out)}
}

// Index implements `a [k]`: the k-th interval (1-based) of the set,
// counting from the start. A negative k counts from the end.
func Index(a BFI, k int) BFI {
	n := len(a.Intervals)
	if n == 0 || k == 0 {
		return Empty()
	}
	idx := k - 1
	if k < 0 {
		idx = n + k
	}
	if idx < 0 || idx >= n {
		return Empty()
	}
	return BFI{Intervals: []Interval{a.Intervals[idx]}}
}

// boundariesOf returns the sorted, deduplicated set of interval-edge
// instants (every Start and every End) in b.
func boundariesOf(b BFI) []time.Time {
	seen := make(map[int64]struct{}, len(b.Intervals)*2)
	var out []time.Time
	add := func(t time.Time) {
		key := t.UnixNano()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	for _, iv := range b.Intervals {
		add(iv.Start)
		add(iv.End)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
