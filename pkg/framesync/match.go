package framesync

// absDiff returns |a-b| for microsecond timestamps.
func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

// bestPair exhaustively scans two channel snapshots for the pair with the
// closest timestamps. The minimum is updated on strict less-than only, so
// when several pairs tie, the first one in scan order (left outer, right
// inner, both insertion-ordered) wins.
//
// A pair is only returned when its difference is within tolerance;
// otherwise there is no pair, even if candidates exist. Buffers are tiny
// (default capacity 3), so the quadratic scan is not a concern.
func bestPair(left, right []slot, toleranceUS int64) (l, r slot, ok bool) {
	best := int64(-1)
	for _, lf := range left {
		for _, rf := range right {
			if d := absDiff(lf.frame.Timestamp, rf.frame.Timestamp); best < 0 || d < best {
				best = d
				l, r = lf, rf
			}
		}
	}
	if best < 0 || best > toleranceUS {
		return slot{}, slot{}, false
	}
	return l, r, true
}

// hasPair reports whether any cross-channel pair is within tolerance,
// without selecting one. Used as the consumer wait predicate.
func hasPair(left, right []slot, toleranceUS int64) bool {
	for _, lf := range left {
		for _, rf := range right {
			if absDiff(lf.frame.Timestamp, rf.frame.Timestamp) <= toleranceUS {
				return true
			}
		}
	}
	return false
}
