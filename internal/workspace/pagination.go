package workspace

// WindowSize is the number of page buttons shown per group.
const WindowSize = 10

// Direction selects the neighbouring page group.
type Direction int

const (
	Prev Direction = iota
	Next
)

func (d Direction) String() string {
	switch d {
	case Prev:
		return "prev"
	case Next:
		return "next"
	default:
		return "unknown"
	}
}

// ShiftWindow moves the page group one window in dir and returns the new
// window start together with the page that becomes current. Both values are
// computed from the same windowStart. Prev clamps at 0; Next is unbounded.
func ShiftWindow(windowStart int, dir Direction) (newStart, newCurrent int) {
	switch dir {
	case Prev:
		newStart = windowStart - WindowSize
		if newStart < 0 {
			newStart = 0
		}
	case Next:
		newStart = windowStart + WindowSize
	default:
		newStart = windowStart
	}
	return newStart, newStart
}

// PageButtons returns the page indices rendered for a window:
// [windowStart, windowStart+WindowSize) intersected with [0, totalPages).
func PageButtons(windowStart, totalPages int) []int {
	start := windowStart
	if start < 0 {
		start = 0
	}
	end := windowStart + WindowSize
	if end > totalPages {
		end = totalPages
	}
	if start >= end {
		return []int{}
	}
	pages := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// CanShiftPrev reports whether the prev-group control is enabled.
func CanShiftPrev(windowStart int) bool {
	return windowStart > 0
}

// CanShiftNext reports whether a later group holds at least one page.
func CanShiftNext(windowStart, totalPages int) bool {
	return windowStart+WindowSize < totalPages
}
