// Package virtual maps list items to row offsets for windowed
// rendering. Items start with an estimated height and are re-measured
// as they render; offsets are prefix sums rebuilt lazily on demand.
package virtual

import "sort"

// List tracks per-item heights in terminal rows. The zero value is not
// usable; construct with NewList.
type List struct {
	heights  []int
	offsets  []int // offsets[i] = first row of item i; offsets[len] = total
	estimate int
	stale    bool
}

// NewList returns an empty list whose unmeasured items are assumed to
// occupy estimate rows. Estimates below one row are raised to one.
func NewList(estimate int) *List {
	if estimate < 1 {
		estimate = 1
	}
	return &List{estimate: estimate, offsets: []int{0}}
}

// Count returns the number of items.
func (l *List) Count() int {
	return len(l.heights)
}

// SetCount resizes the list to n items. New items at the tail take the
// estimated height; shrinking discards tail measurements.
func (l *List) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	switch {
	case n < len(l.heights):
		l.heights = l.heights[:n]
	case n > len(l.heights):
		for len(l.heights) < n {
			l.heights = append(l.heights, l.estimate)
		}
	default:
		return
	}
	l.stale = true
}

// Prepend inserts n unmeasured items at the head, shifting every
// existing measurement up by n indices.
func (l *List) Prepend(n int) {
	if n <= 0 {
		return
	}
	grown := make([]int, n, n+len(l.heights))
	for i := 0; i < n; i++ {
		grown[i] = l.estimate
	}
	l.heights = append(grown, l.heights...)
	l.stale = true
}

// Append adds n unmeasured items at the tail.
func (l *List) Append(n int) {
	for i := 0; i < n; i++ {
		l.heights = append(l.heights, l.estimate)
	}
	if n > 0 {
		l.stale = true
	}
}

// Measure records the rendered height of item i. Heights below one row
// clamp to one. Out-of-range indices are ignored.
func (l *List) Measure(i, height int) {
	if i < 0 || i >= len(l.heights) {
		return
	}
	if height < 1 {
		height = 1
	}
	if l.heights[i] == height {
		return
	}
	l.heights[i] = height
	l.stale = true
}

// Height returns the current height of item i, or 0 out of range.
func (l *List) Height(i int) int {
	if i < 0 || i >= len(l.heights) {
		return 0
	}
	return l.heights[i]
}

// TotalSize returns the summed height of all items in rows.
func (l *List) TotalSize() int {
	l.refresh()
	return l.offsets[len(l.offsets)-1]
}

// OffsetOf returns the first row of item i. An index past the end
// returns the total size, so OffsetOf(Count()) is the bottom edge.
func (l *List) OffsetOf(i int) int {
	l.refresh()
	if i < 0 {
		return 0
	}
	if i >= len(l.offsets) {
		return l.offsets[len(l.offsets)-1]
	}
	return l.offsets[i]
}

// IndexAt returns the index of the item occupying the given row,
// clamped to valid indices. Returns -1 for an empty list.
func (l *List) IndexAt(row int) int {
	if len(l.heights) == 0 {
		return -1
	}
	l.refresh()
	if row < 0 {
		return 0
	}
	// Last item whose first row is <= row.
	i := sort.SearchInts(l.offsets, row+1) - 1
	if i >= len(l.heights) {
		i = len(l.heights) - 1
	}
	return i
}

// Window returns the inclusive index range [first, last] visible in a
// viewport of the given height starting at scrollTop. An empty list
// yields (0, -1).
func (l *List) Window(scrollTop, viewport int) (first, last int) {
	if len(l.heights) == 0 || viewport <= 0 {
		return 0, -1
	}
	first = l.IndexAt(scrollTop)
	last = l.IndexAt(scrollTop + viewport - 1)
	return first, last
}

func (l *List) refresh() {
	if !l.stale && len(l.offsets) == len(l.heights)+1 {
		return
	}
	l.offsets = l.offsets[:0]
	l.offsets = append(l.offsets, 0)
	total := 0
	for _, h := range l.heights {
		total += h
		l.offsets = append(l.offsets, total)
	}
	l.stale = false
}
