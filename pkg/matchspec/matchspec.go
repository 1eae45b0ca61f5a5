// Package matchspec implements the textual constraint grammar that selects
// packages: a required name plus optional version range, build-string glob
// and channel/subdir restriction.
//
// Supported forms follow the conda spec syntax:
//
//	foo
//	foo >=1.2,<2.0
//	foo 1.2.* py37*
//	foo=1.2=py37_0
//	conda-forge::foo >=1.2
//	conda-forge/linux-64::foo
//
// A MatchSpec is immutable once parsed.
package matchspec

import (
	"path"
	"strings"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/types"
)

// MatchSpec selects package records by name plus optional predicates.
type MatchSpec struct {
	Name    string
	Version VersionSpec

	// Build is a glob over the build string, empty for any.
	Build string

	// Channel and Subdir restrict where a record may come from, empty
	// for any.
	Channel string
	Subdir  string

	raw string
}

// Parse parses a textual match spec.
func Parse(text string) (MatchSpec, error) {
	raw := text
	text = strings.TrimSpace(text)
	if text == "" {
		return MatchSpec{}, errors.New(errors.ErrParse, "empty match spec")
	}

	spec := MatchSpec{Version: AnyVersion(), raw: raw}

	// Optional channel prefix: "channel[/subdir]::rest".
	if idx := strings.Index(text, "::"); idx >= 0 {
		channelPart := strings.TrimSpace(text[:idx])
		text = strings.TrimSpace(text[idx+2:])
		if slash := strings.IndexByte(channelPart, '/'); slash >= 0 {
			spec.Channel = channelPart[:slash]
			spec.Subdir = channelPart[slash+1:]
		} else {
			spec.Channel = channelPart
		}
	}

	// The name runs until the first operator character or space.
	nameEnd := strings.IndexAny(text, " =<>!~")
	var rest string
	if nameEnd < 0 {
		spec.Name = text
	} else {
		spec.Name = text[:nameEnd]
		rest = strings.TrimSpace(text[nameEnd:])
	}

	spec.Name = strings.ToLower(spec.Name)
	if err := validateName(spec.Name, raw); err != nil {
		return MatchSpec{}, err
	}

	if rest == "" {
		return spec, nil
	}

	// "name=version=build" uses single '=' as both the fuzzy version
	// operator and the build separator.
	if rest[0] == '=' && !strings.HasPrefix(rest, "==") {
		inner := rest[1:]
		if idx := strings.IndexByte(inner, '='); idx >= 0 {
			versionPart := inner[:idx]
			spec.Build = inner[idx+1:]
			vs, err := ParseVersionSpec("=" + versionPart)
			if err != nil {
				return MatchSpec{}, err
			}
			spec.Version = vs
			return spec, nil
		}
	}

	// Otherwise a space separates the version expression from an optional
	// build glob: "name >=1.2 py37*".
	versionPart := rest
	if idx := strings.LastIndexByte(rest, ' '); idx >= 0 {
		candidate := strings.TrimSpace(rest[idx+1:])
		head := strings.TrimSpace(rest[:idx])
		// Only treat the tail as a build glob when the head is itself a
		// complete version expression.
		if head != "" && !strings.HasSuffix(head, ",") && !strings.HasSuffix(head, "|") {
			versionPart = head
			spec.Build = candidate
		}
	}

	vs, err := ParseVersionSpec(strings.ReplaceAll(versionPart, " ", ""))
	if err != nil {
		return MatchSpec{}, err
	}
	spec.Version = vs
	return spec, nil
}

// MustParse parses a match spec and panics on failure. For tests only.
func MustParse(text string) MatchSpec {
	spec, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return spec
}

func validateName(name, raw string) error {
	if name == "" {
		return errors.Newf(errors.ErrParse, "invalid match spec %q: missing package name", raw)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		ok := c >= 'a' && c <= 'z' ||
			c >= '0' && c <= '9' ||
			c == '.' || c == '-' || c == '_' || c == '*'
		if !ok {
			return errors.Newf(errors.ErrParse,
				"invalid match spec %q: bad character %q in package name", raw, c)
		}
	}
	return nil
}

// Matches reports whether the record satisfies every predicate of the spec.
func (s MatchSpec) Matches(rec *types.PackageRecord) bool {
	if rec == nil {
		return false
	}
	if s.Name != rec.Name {
		return false
	}
	if !s.Version.Matches(rec.Version) {
		return false
	}
	if s.Build != "" && !globMatch(s.Build, rec.Build) {
		return false
	}
	if s.Channel != "" && s.Channel != rec.Channel {
		return false
	}
	if s.Subdir != "" && s.Subdir != rec.Subdir {
		return false
	}
	return true
}

// IsExact reports whether the spec pins name, version and build exactly.
func (s MatchSpec) IsExact() bool {
	if s.Build == "" || strings.ContainsAny(s.Build, "*?") {
		return false
	}
	if len(s.Version.groups) != 1 || len(s.Version.groups[0]) != 1 {
		return false
	}
	return s.Version.groups[0][0].Op == OpEqual
}

func (s MatchSpec) String() string {
	if s.raw != "" {
		return strings.TrimSpace(s.raw)
	}
	return s.Name
}

// globMatch matches a build-string glob. Build strings never contain path
// separators, so path.Match's '*' and '?' semantics are exactly fnmatch.
func globMatch(pattern, value string) bool {
	ok, err := path.Match(pattern, value)
	return err == nil && ok
}
