package rank

// Reorder splices the element at index from to index to and returns a new
// slice; the input is never mutated. to is the element's final index in
// the result. Out-of-range indices are clamped so UI-driven calls cannot
// panic. This is the toolkit-independent form of drag-and-drop: any input
// modality reduces to (from, to).
func Reorder(list []string, from, to int) []string {
	n := len(list)
	if n == 0 {
		return nil
	}
	from = clamp(from, 0, n-1)
	to = clamp(to, 0, n-1)

	out := make([]string, 0, n)
	out = append(out, list...)
	if from == to {
		return out
	}

	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]string{item}, out[to:]...)...)
	return out
}

// DropIndex maps a pointer's vertical offset onto an insertion index:
// insert before the first untouched item whose midpoint is below the
// pointer, append if none. midpoints must be in display order.
func DropIndex(midpoints []float64, pointerY float64) int {
	for i, mid := range midpoints {
		if pointerY < mid {
			return i
		}
	}
	return len(midpoints)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
