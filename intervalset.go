package cfdp

import "sort"

// ByteRange is a half-open byte range [Start, End) of a file's content.
type ByteRange struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

func (r ByteRange) empty() bool {
	return r.End <= r.Start
}

// IntervalSet tracks the set of byte ranges received so far for one
// transaction's file data, kept as a sorted, disjoint, non-adjacent list of
// ranges. The destination handler uses it to detect duplicate segments and
// to compute the gaps reported in NAK PDUs.
type IntervalSet struct {
	ranges []ByteRange
}

// NewIntervalSet returns an empty interval set.
func NewIntervalSet() *IntervalSet {
	return &IntervalSet{}
}

// Insert adds [start, end) to the set, merging with any overlapping or
// adjacent existing ranges. A zero-length range is a no-op.
func (s *IntervalSet) Insert(start, end uint64) {
	r := ByteRange{Start: start, End: end}
	if r.empty() {
		return
	}

	i := sort.Search(len(s.ranges), func(i int) bool {
		return s.ranges[i].Start > r.Start
	})

	merged := []ByteRange{r}
	// merge any neighbor that overlaps or touches the new range, scanning
	// outward from the insertion point in both directions.
	lo, hi := i, i
	for lo > 0 && s.ranges[lo-1].End >= merged[0].Start {
		lo--
		merged[0] = unionRange(merged[0], s.ranges[lo])
	}
	for hi < len(s.ranges) && s.ranges[hi].Start <= merged[0].End {
		merged[0] = unionRange(merged[0], s.ranges[hi])
		hi++
	}

	next := make([]ByteRange, 0, len(s.ranges)-(hi-lo)+1)
	next = append(next, s.ranges[:lo]...)
	next = append(next, merged[0])
	next = append(next, s.ranges[hi:]...)
	s.ranges = next
}

func unionRange(a, b ByteRange) ByteRange {
	u := a
	if b.Start < u.Start {
		u.Start = b.Start
	}
	if b.End > u.End {
		u.End = b.End
	}
	return u
}

// Covered reports whether every byte in [start, end) is already present in
// the set.
func (s *IntervalSet) Covered(start, end uint64) bool {
	if end <= start {
		return true
	}
	for _, r := range s.ranges {
		if r.Start <= start && r.End >= end {
			return true
		}
	}
	return false
}

// Missing returns the sorted, disjoint gaps in [start, end) not covered by
// the set, i.e. the complement of the set restricted to that scope. This is
// the byte-range list the destination handler reports in NAK PDUs.
func (s *IntervalSet) Missing(start, end uint64) []ByteRange {
	if end <= start {
		return nil
	}
	var gaps []ByteRange
	cursor := start
	for _, r := range s.ranges {
		if r.End <= cursor {
			continue
		}
		if r.Start >= end {
			break
		}
		if r.Start > cursor {
			gaps = append(gaps, ByteRange{Start: cursor, End: min64(r.Start, end)})
		}
		if r.End > cursor {
			cursor = r.End
		}
		if cursor >= end {
			break
		}
	}
	if cursor < end {
		gaps = append(gaps, ByteRange{Start: cursor, End: end})
	}
	return gaps
}

// Ranges returns a copy of the set's current disjoint ranges in ascending
// order.
func (s *IntervalSet) Ranges() []ByteRange {
	out := make([]ByteRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// TotalBytes returns the sum of the lengths of all ranges in the set.
func (s *IntervalSet) TotalBytes() uint64 {
	var total uint64
	for _, r := range s.ranges {
		total += r.Len()
	}
	return total
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
