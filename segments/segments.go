// Segment coalescing: maintaining a sorted, disjoint list of half-open intervals under insertion.
//
// This is the Go rendering of the classic segment_add algorithm (see Kipp Cannon's glue.segments,
// by way of pmdc's poor-man's-diskcache): binary search for the insertion point, insert, then walk
// forward from the left neighbour merging any interval whose start falls at or before the running
// maximum end.

package segments

import "sort"

// Interval is a half-open range [Start, End).
type Interval struct {
	Start int64
	End   int64
}

// List is a sorted, pairwise-disjoint, fully coalesced list of intervals.  The zero value is an
// empty list ready to use.
type List []Interval

// Add inserts [start, end) into the list in place, keeping it sorted, disjoint, and fully
// coalesced.  A degenerate interval (start >= end), such as the one a zero-duration frame name
// yields, is dropped: it is not an error, just a no-op.
func (l *List) Add(start, end int64) {
	if start >= end {
		return
	}

	sl := *l
	idx := sort.Search(len(sl), func(i int) bool {
		return sl[i].Start >= start
	})
	sl = append(sl, Interval{})
	copy(sl[idx+1:], sl[idx:])
	sl[idx] = Interval{Start: start, End: end}

	// Walk forward from the left neighbour of the insertion point: that neighbour's end may
	// extend past `start` and need to absorb the new interval.
	i := idx
	if i > 0 {
		i--
	}
	j := i
	n := len(sl)
	for j < n {
		lo, hi := sl[j].Start, sl[j].End
		j++
		for j < n && hi >= sl[j].Start {
			if sl[j].End > hi {
				hi = sl[j].End
			}
			j++
		}
		sl[i] = Interval{Start: lo, End: hi}
		i++
	}
	*l = sl[:i]
}

// Union returns the total covered length: the sum of (End-Start) over all intervals.  Since the
// list is disjoint this equals the measure of the union of every interval ever inserted.
func (l List) Union() int64 {
	var total int64
	for _, iv := range l {
		total += iv.End - iv.Start
	}
	return total
}

// Flatten renders the list as a flat sequence of start0, end0, start1, end1, ... values, the
// representation used by the ldas/pmdc emitters.
func (l List) Flatten() []int64 {
	out := make([]int64, 0, len(l)*2)
	for _, iv := range l {
		out = append(out, iv.Start, iv.End)
	}
	return out
}
