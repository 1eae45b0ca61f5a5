package version

// Compare returns -1, 0 or 1 ordering v against other. The order is strict
// and total: epoch, then segments, then the local version as tiebreak.
func (v Version) Compare(other Version) int {
	if v.epoch != other.epoch {
		if v.epoch < other.epoch {
			return -1
		}
		return 1
	}
	if c := compareSegmentLists(v.segments, other.segments); c != 0 {
		return c
	}
	return compareSegmentLists(v.local, other.local)
}

// Equal reports whether the versions order the same.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// LessThan reports whether v orders strictly before other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan reports whether v orders strictly after other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// compareSegmentLists compares lexicographically, with absent trailing
// segments counting as the zero segment.
func compareSegmentLists(a, b []segment) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	zero := segment{components: []component{numeral(0)}}
	for i := 0; i < n; i++ {
		sa, sb := zero, zero
		if i < len(a) {
			sa = a[i]
		}
		if i < len(b) {
			sb = b[i]
		}
		if c := compareSegments(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

// compareSegments compares atom by atom, padding the shorter side with
// zero numerals so "1.0" and "1.0.0" compare equal while "1.0a" sorts
// below "1.0".
func compareSegments(a, b segment) int {
	n := len(a.components)
	if len(b.components) > n {
		n = len(b.components)
	}
	for i := 0; i < n; i++ {
		ca, cb := numeral(0), numeral(0)
		if i < len(a.components) {
			ca = a.components[i]
		}
		if i < len(b.components) {
			cb = b.components[i]
		}
		if c := compareComponents(ca, cb); c != 0 {
			return c
		}
	}
	return 0
}
