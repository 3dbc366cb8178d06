package ring

import (
	"fmt"
	"sort"
)

// Range is an inclusive span [Start, End] of element indices.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Len() int { return r.End - r.Start + 1 }

func (r Range) String() string { return fmt.Sprintf("[%d,%d]", r.Start, r.End) }

// DirtyRanges returns the spans touched by a batch whose first and last
// written indices are first and last, in a ring of the given capacity. The
// batch must be shorter than capacity; use [Span.Ranges] otherwise.
func DirtyRanges(first, last, capacity int) []Range {
	if first <= last {
		return []Range{{first, last}}
	}
	return []Range{{first, capacity - 1}, {0, last}}
}

// Span records the indices written by one PushBatch call.
type Span struct {
	First int
	Last  int
	Count int
}

// Ranges returns the dirty ranges for the span. An empty span has none and a
// span of capacity or more pushes covers the whole ring exactly once.
func (s Span) Ranges(capacity int) []Range {
	switch {
	case s.Count <= 0:
		return nil
	case s.Count >= capacity:
		return []Range{{0, capacity - 1}}
	}
	return DirtyRanges(s.First, s.Last, capacity)
}

// Merge returns the minimal sorted set of ranges covering every input.
// Adjacent ranges are joined.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := sorted[:1]
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
