package version

// Bump returns a new version with the last numeric atom of the main version
// incremented. Implicit zeros count, so "1.a" bumps to "1.1a" and "1dev0"
// bumps to "1dev1".
func (v Version) Bump() Version {
	out := v
	out.segments = cloneSegments(v.segments)

	for i := len(out.segments) - 1; i >= 0; i-- {
		comps := out.segments[i].components
		for j := len(comps) - 1; j >= 0; j-- {
			if comps[j].kind == kindNumeral {
				comps[j].num++
				comps[j].implicit = false
				return out
			}
		}
	}
	return out
}

// StartsWith reports whether v begins with other, segment-wise: "1.0.6"
// starts with "1.0" but not with "1.6", and "1.23" does not start with
// "1.2". Epochs must agree.
func (v Version) StartsWith(other Version) bool {
	if v.epoch != other.epoch {
		return false
	}
	if len(other.segments) > len(v.segments) {
		return false
	}
	for i, oseg := range other.segments {
		vseg := v.segments[i]
		if i < len(other.segments)-1 {
			if compareSegments(vseg, oseg) != 0 {
				return false
			}
			continue
		}
		// Last segment of the prefix: its atoms must match the leading
		// atoms of ours exactly.
		if len(oseg.components) > len(vseg.components) {
			return false
		}
		for j, oc := range oseg.components {
			if compareComponents(vseg.components[j], oc) != 0 {
				return false
			}
		}
	}
	return true
}

// CompatibleWith implements the "~=" compatible-release relation: v must
// order at or above other and share all but other's last segment.
func (v Version) CompatibleWith(other Version) bool {
	if v.Compare(other) < 0 {
		return false
	}
	prefix, ok := other.PopSegments(1)
	if !ok {
		return true
	}
	return v.StartsWith(prefix)
}

// PopSegments returns the version with its last n segments removed, and
// false when fewer than n+1 segments remain.
func (v Version) PopSegments(n int) (Version, bool) {
	if n <= 0 {
		return v, true
	}
	if n >= len(v.segments) {
		return Version{}, false
	}
	out := v
	out.segments = cloneSegments(v.segments[:len(v.segments)-n])
	out.local = nil
	return out, true
}

// AsMajorMinor returns the first two segments as plain numbers, when both
// are purely numeric.
func (v Version) AsMajorMinor() (major, minor uint64, ok bool) {
	if len(v.segments) < 2 {
		return 0, 0, false
	}
	for i := 0; i < 2; i++ {
		comps := v.segments[i].components
		if len(comps) != 1 || comps[0].kind != kindNumeral {
			return 0, 0, false
		}
	}
	return v.segments[0].components[0].num, v.segments[1].components[0].num, true
}

func cloneSegments(segs []segment) []segment {
	out := make([]segment, len(segs))
	for i, s := range segs {
		comps := make([]component, len(s.components))
		copy(comps, s.components)
		out[i] = segment{sep: s.sep, components: comps}
	}
	return out
}
