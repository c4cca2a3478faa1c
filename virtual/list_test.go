package virtual

import "testing"

func TestListEstimatedSizes(t *testing.T) {
	l := NewList(3)
	l.SetCount(4)

	if got := l.Count(); got != 4 {
		t.Fatalf("count: got %d, want 4", got)
	}
	if got := l.TotalSize(); got != 12 {
		t.Errorf("total size: got %d, want 12", got)
	}
	if got := l.OffsetOf(2); got != 6 {
		t.Errorf("offset of item 2: got %d, want 6", got)
	}
	if got := l.OffsetOf(4); got != 12 {
		t.Errorf("offset past end: got %d, want total 12", got)
	}
}

func TestListMeasure(t *testing.T) {
	l := NewList(2)
	l.SetCount(3)
	l.Measure(1, 5)

	if got := l.TotalSize(); got != 9 {
		t.Errorf("total size: got %d, want 9", got)
	}
	if got := l.OffsetOf(2); got != 7 {
		t.Errorf("offset of item 2: got %d, want 7", got)
	}
	if got := l.Height(1); got != 5 {
		t.Errorf("height of item 1: got %d, want 5", got)
	}

	// Zero and negative heights clamp to one row.
	l.Measure(0, 0)
	if got := l.Height(0); got != 1 {
		t.Errorf("clamped height: got %d, want 1", got)
	}

	// Out-of-range measurements are ignored.
	l.Measure(99, 4)
	if got := l.Count(); got != 3 {
		t.Errorf("count after stray measure: got %d, want 3", got)
	}
}

func TestListIndexAt(t *testing.T) {
	l := NewList(1)
	l.SetCount(3)
	l.Measure(0, 2) // rows 0-1
	l.Measure(1, 3) // rows 2-4
	l.Measure(2, 1) // row 5

	tests := []struct {
		name string
		row  int
		want int
	}{
		{name: "first row", row: 0, want: 0},
		{name: "last row of first item", row: 1, want: 0},
		{name: "first row of second item", row: 2, want: 1},
		{name: "middle of second item", row: 4, want: 1},
		{name: "third item", row: 5, want: 2},
		{name: "negative clamps to head", row: -3, want: 0},
		{name: "past the end clamps to tail", row: 50, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.IndexAt(tt.row); got != tt.want {
				t.Errorf("IndexAt(%d): got %d, want %d", tt.row, got, tt.want)
			}
		})
	}

	empty := NewList(1)
	if got := empty.IndexAt(0); got != -1 {
		t.Errorf("IndexAt on empty list: got %d, want -1", got)
	}
}

func TestListWindow(t *testing.T) {
	l := NewList(2)
	l.SetCount(10) // 20 rows total

	first, last := l.Window(0, 6)
	if first != 0 || last != 2 {
		t.Errorf("window at top: got [%d, %d], want [0, 2]", first, last)
	}

	first, last = l.Window(5, 6)
	if first != 2 || last != 5 {
		t.Errorf("window mid-list: got [%d, %d], want [2, 5]", first, last)
	}

	first, last = l.Window(14, 6)
	if first != 7 || last != 9 {
		t.Errorf("window at bottom: got [%d, %d], want [7, 9]", first, last)
	}

	first, last = NewList(2).Window(0, 6)
	if first != 0 || last != -1 {
		t.Errorf("window on empty list: got [%d, %d], want [0, -1]", first, last)
	}
}

func TestListPrependShiftsMeasurements(t *testing.T) {
	l := NewList(2)
	l.SetCount(2)
	l.Measure(0, 7)

	l.Prepend(3)

	if got := l.Count(); got != 5 {
		t.Fatalf("count: got %d, want 5", got)
	}
	// The measured item moved from index 0 to index 3.
	if got := l.Height(3); got != 7 {
		t.Errorf("shifted height: got %d, want 7", got)
	}
	if got := l.OffsetOf(3); got != 6 {
		t.Errorf("shifted offset: got %d, want 6", got)
	}
	if got := l.TotalSize(); got != 6+7+2 {
		t.Errorf("total size: got %d, want 15", got)
	}
}

func TestListSetCountShrinks(t *testing.T) {
	l := NewList(2)
	l.SetCount(5)
	l.Measure(4, 9)
	l.SetCount(2)

	if got := l.Count(); got != 2 {
		t.Fatalf("count: got %d, want 2", got)
	}
	if got := l.TotalSize(); got != 4 {
		t.Errorf("total size: got %d, want 4", got)
	}

	// Growing again resets the discarded measurement to the estimate.
	l.SetCount(5)
	if got := l.Height(4); got != 2 {
		t.Errorf("regrown height: got %d, want estimate 2", got)
	}
}
