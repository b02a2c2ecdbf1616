package board

// insertIndex converts a drop target expressed against the list before removal
// (0..n, where n is the list length) into an insert position in the list after the
// moved element at from has been removed.
//
// Dropping "after position k" while moving rightward points one past the element's
// final slot, so targets greater than from are decremented before clamping.
func insertIndex(from, target, n int) int {
	if target > from {
		target--
	}
	return clamp(target, 0, n-1)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// moveWithin returns a copy of s with the element at from reinserted at to
// (an index into the list without that element).
func moveWithin[T any](s []T, from, to int) []T {
	out := make([]T, 0, len(s))
	moved := s[from]
	for i := range s {
		if i == from {
			continue
		}
		if len(out) == to {
			out = append(out, moved)
		}
		out = append(out, s[i])
	}
	if len(out) < len(s) {
		out = append(out, moved)
	}
	return out
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func insertAt[T any](s []T, i int, v T) []T {
	i = clamp(i, 0, len(s))
	out := make([]T, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, v)
	return append(out, s[i:]...)
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, s...)
	return append(out, v)
}
