// Package version implements parsing, ordering and formatting of conda-style
// version strings.
//
// A version is an optional numeric epoch ("2!"), a list of segments separated
// by ".", "-" or "_", and an optional local version after "+". Each segment is
// an alternating run of numeric and alphabetic atoms ("1a2" is three atoms).
// Dashes and underscores are interchangeable separators but may not be mixed
// within one string. A trailing separator is the underscore sentinel: "1.0_"
// sorts between "1.0dev" and "1.0".
//
// Ordering is a strict total order: epoch first, then segment-by-segment
// comparison (numeric atoms numerically, alphabetic atoms by a fixed rank
// table where "dev" sorts below everything, "post" above everything, and
// missing trailing atoms count as zero), with the local version as the final
// tiebreak.
package version

import (
	"strconv"
	"strings"
)

// componentKind ranks the atom classes against each other. The rank table is
// pinned here: wildcard < dev < underscore sentinel < other alpha < numeral
// < post. Getting this wrong breaks solver determinism silently, so the
// values are explicit rather than derived.
type componentKind int

const (
	kindWildcard   componentKind = 0
	kindDev        componentKind = 1
	kindUnderscore componentKind = 2
	kindAlpha      componentKind = 3
	kindNumeral    componentKind = 4
	kindPost       componentKind = 5
)

// component is one atom of a segment.
type component struct {
	kind componentKind
	num  uint64
	str  string

	// implicit marks the zero numeral inserted before a segment that
	// starts with an alphabetic atom. Implicit atoms participate in
	// comparison but are not formatted.
	implicit bool
}

func numeral(n uint64) component  { return component{kind: kindNumeral, num: n} }
func implicitZero() component     { return component{kind: kindNumeral, implicit: true} }
func alpha(s string) component    { return classifyAlpha(s) }
func underscore() component       { return component{kind: kindUnderscore, str: "_"} }
func wildcard() component         { return component{kind: kindWildcard, str: "*"} }

func classifyAlpha(s string) component {
	switch s {
	case "dev":
		return component{kind: kindDev, str: s}
	case "post":
		return component{kind: kindPost, str: s}
	default:
		return component{kind: kindAlpha, str: s}
	}
}

// compareComponents orders two atoms: by kind rank first, then numerically
// for numerals and lexically for plain alpha atoms.
func compareComponents(a, b component) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case kindNumeral:
		if a.num != b.num {
			if a.num < b.num {
				return -1
			}
			return 1
		}
	case kindAlpha:
		return strings.Compare(a.str, b.str)
	}
	return 0
}

// segment is one separator-delimited part of a version.
type segment struct {
	// sep is the separator preceding this segment: '.', '-' or '_'.
	// Zero for the first segment.
	sep byte

	components []component
}

// sentinel reports whether this is the trailing-separator marker segment.
func (s segment) sentinel() bool {
	return len(s.components) == 2 &&
		s.components[0].implicit &&
		s.components[1].kind == kindUnderscore
}

// Version is a parsed, immutable version. The zero value is "0".
type Version struct {
	epoch    uint64
	hasEpoch bool
	segments []segment
	local    []segment
}

// Epoch returns the explicit epoch and whether one was present. Versions
// without an epoch compare as epoch zero.
func (v Version) Epoch() (uint64, bool) {
	return v.epoch, v.hasEpoch
}

// HasLocal reports whether the version carries a "+local" part.
func (v Version) HasLocal() bool {
	return len(v.local) > 0
}

// IsDev reports whether any atom of the version is the "dev" qualifier.
func (v Version) IsDev() bool {
	for _, seg := range v.segments {
		for _, c := range seg.components {
			if c.kind == kindDev {
				return true
			}
		}
	}
	return false
}

// StripLocal returns the version without its local part.
func (v Version) StripLocal() Version {
	out := v
	out.local = nil
	return out
}

// SegmentCount returns the number of segments in the main version.
func (v Version) SegmentCount() int {
	return len(v.segments)
}

// String formats the version canonically. Parsing the result yields an
// equal Version.
func (v Version) String() string {
	var b strings.Builder
	if v.hasEpoch {
		b.WriteString(strconv.FormatUint(v.epoch, 10))
		b.WriteByte('!')
	}
	writeSegments(&b, v.segments)
	if len(v.local) > 0 {
		b.WriteByte('+')
		writeSegments(&b, v.local)
	}
	return b.String()
}

func writeSegments(b *strings.Builder, segs []segment) {
	for _, seg := range segs {
		if seg.sep != 0 {
			b.WriteByte(seg.sep)
		}
		for _, c := range seg.components {
			if c.implicit {
				continue
			}
			switch c.kind {
			case kindNumeral:
				b.WriteString(strconv.FormatUint(c.num, 10))
			case kindUnderscore:
				// Represented by the trailing separator already written.
			default:
				b.WriteString(c.str)
			}
		}
	}
}
