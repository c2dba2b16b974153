package workspace

import (
	"testing"

	"pgregory.net/rapid"
)

func TestShiftWindowScenarios(t *testing.T) {
	tests := []struct {
		name        string
		start       int
		dir         Direction
		wantStart   int
		wantCurrent int
	}{
		{"next from first group", 0, Next, 10, 10},
		{"prev from second group", 10, Prev, 0, 0},
		{"prev clamps at zero", 0, Prev, 0, 0},
		{"next is unbounded", 90, Next, 100, 100},
		{"unknown direction is a no-op", 20, Direction(7), 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, current := ShiftWindow(tt.start, tt.dir)
			if start != tt.wantStart || current != tt.wantCurrent {
				t.Fatalf("ShiftWindow(%d, %s) = (%d, %d), want (%d, %d)",
					tt.start, tt.dir, start, current, tt.wantStart, tt.wantCurrent)
			}
		})
	}
}

func TestPageButtonsFor23Pages(t *testing.T) {
	got := PageButtons(10, 23)
	if len(got) != 10 || got[0] != 10 || got[9] != 19 {
		t.Fatalf("PageButtons(10, 23) = %v", got)
	}
	if got := PageButtons(30, 23); len(got) != 0 {
		t.Fatalf("PageButtons past the end = %v", got)
	}
}

func TestProperty_PageButtonsAreWindowIntersection(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := rapid.IntRange(0, 50).Draw(rt, "group") * WindowSize
		total := rapid.IntRange(0, 600).Draw(rt, "totalPages")

		got := PageButtons(start, total)

		var want []int
		for i := 0; i < total; i++ {
			if i >= start && i < start+WindowSize {
				want = append(want, i)
			}
		}
		if len(got) != len(want) {
			rt.Fatalf("PageButtons(%d, %d) = %v, want %v", start, total, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				rt.Fatalf("PageButtons(%d, %d) = %v, want %v", start, total, got, want)
			}
		}
	})
}

func TestProperty_ShiftWindowKeepsGroupAlignment(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := rapid.IntRange(0, 1000).Draw(rt, "group") * WindowSize
		dir := Direction(rapid.IntRange(0, 1).Draw(rt, "dir"))

		newStart, newCurrent := ShiftWindow(start, dir)

		if newStart != newCurrent {
			rt.Fatalf("start %d and current %d diverged", newStart, newCurrent)
		}
		if newStart < 0 || newStart%WindowSize != 0 {
			rt.Fatalf("misaligned window start %d", newStart)
		}
		want := start + WindowSize
		if dir == Prev {
			want = start - WindowSize
			if want < 0 {
				want = 0
			}
		}
		if newStart != want {
			rt.Fatalf("ShiftWindow(%d, %s) = %d, want %d", start, dir, newStart, want)
		}
	})
}

func TestProperty_NextEnabledOnlyWhenLaterPagesExist(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := rapid.IntRange(0, 50).Draw(rt, "group") * WindowSize
		total := rapid.IntRange(0, 600).Draw(rt, "totalPages")

		next, _ := ShiftWindow(start, Next)
		hasPages := len(PageButtons(next, total)) > 0
		if CanShiftNext(start, total) != hasPages {
			rt.Fatalf("CanShiftNext(%d, %d) = %v, next group has pages = %v",
				start, total, CanShiftNext(start, total), hasPages)
		}
	})
}
