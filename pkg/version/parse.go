package version

import (
	"strconv"
	"strings"

	"github.com/arthur-debert/gonda/pkg/errors"
)

// Parse parses a version string. On failure the returned error carries the
// errors.ErrParse code plus the input and offending position as details.
func Parse(text string) (Version, error) {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" {
		return Version{}, parseError(text, 0, "expected a version component")
	}

	// Dashes and underscores are interchangeable separators, but mixing
	// both in one string is ambiguous and rejected outright.
	if strings.ContainsRune(input, '-') && strings.ContainsRune(input, '_') {
		return Version{}, parseError(text, 0, "mixed separators")
	}

	var v Version
	rest := input

	// Optional epoch: digits terminated by '!'.
	if idx := strings.IndexByte(rest, '!'); idx >= 0 {
		epoch, err := strconv.ParseUint(rest[:idx], 10, 64)
		if err != nil {
			return Version{}, parseError(text, 0, "epoch is not a number")
		}
		v.epoch = epoch
		v.hasEpoch = true
		rest = rest[idx+1:]
	}

	// Optional local version after '+'.
	main := rest
	var local string
	hasLocal := false
	if idx := strings.IndexByte(rest, '+'); idx >= 0 {
		if strings.IndexByte(rest[idx+1:], '+') >= 0 {
			return Version{}, parseError(text, idx+1, "trailing characters")
		}
		main, local = rest[:idx], rest[idx+1:]
		hasLocal = true
	}

	segs, err := parseSegments(text, main)
	if err != nil {
		return Version{}, err
	}
	v.segments = segs

	if hasLocal {
		if local == "" {
			return Version{}, parseError(text, len(input), "expected a version component")
		}
		lsegs, err := parseSegments(text, local)
		if err != nil {
			return Version{}, err
		}
		v.local = lsegs
	}

	return v, nil
}

// MustParse parses a version string and panics on failure. For tests and
// compile-time constants only.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

func isSeparator(c byte) bool {
	return c == '.' || c == '-' || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlphaChar(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// parseSegments parses a separator-delimited segment list. The original
// (untrimmed) input is threaded through for error reporting only.
func parseSegments(original, text string) ([]segment, error) {
	if text == "" {
		return nil, parseError(original, 0, "expected a version component")
	}

	var segs []segment
	var sep byte
	pos := 0

	for {
		comps, n := parseSegmentComponents(text[pos:])
		pos += n

		if len(comps) == 0 {
			// Nothing parsed at this position. A trailing dash or
			// underscore is the sentinel marker segment, anything else
			// is a missing component.
			if pos == len(text) && (sep == '-' || sep == '_') {
				segs = append(segs, segment{
					sep:        sep,
					components: []component{implicitZero(), underscore()},
				})
				return segs, nil
			}
			return nil, parseError(original, pos, "expected a version component")
		}

		segs = append(segs, segment{sep: sep, components: comps})

		if pos == len(text) {
			return segs, nil
		}
		if !isSeparator(text[pos]) {
			return nil, parseError(original, pos, "trailing characters")
		}
		sep = text[pos]
		pos++
	}
}

// parseSegmentComponents reads the alternating numeric/alpha atoms of one
// segment, returning the atoms and how many bytes were consumed. A segment
// that starts with an alphabetic atom gets an implicit leading zero so that
// "1.a" and "1.0a" relate the way the ordering rules require.
func parseSegmentComponents(text string) ([]component, int) {
	var comps []component
	pos := 0

	for pos < len(text) {
		c := text[pos]
		switch {
		case isDigit(c):
			start := pos
			for pos < len(text) && isDigit(text[pos]) {
				pos++
			}
			// Numbers too large for uint64 do not occur in real version
			// strings; saturate rather than fail so ordering stays total.
			n, err := strconv.ParseUint(text[start:pos], 10, 64)
			if err != nil {
				n = ^uint64(0)
			}
			comps = append(comps, numeral(n))
		case isAlphaChar(c):
			start := pos
			for pos < len(text) && isAlphaChar(text[pos]) {
				pos++
			}
			comps = append(comps, classifyAlpha(text[start:pos]))
		case c == '*':
			comps = append(comps, wildcard())
			pos++
		default:
			return finishSegment(comps), pos
		}
	}

	return finishSegment(comps), pos
}

func finishSegment(comps []component) []component {
	if len(comps) > 0 && comps[0].kind != kindNumeral {
		comps = append([]component{implicitZero()}, comps...)
	}
	return comps
}

func parseError(input string, pos int, message string) error {
	return errors.Newf(errors.ErrParse, "invalid version %q: %s", input, message).
		WithDetail("input", input).
		WithDetail("position", pos)
}
