package matchspec

import (
	"strings"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/version"
)

// ConstraintOp enumerates the primitive version relations.
type ConstraintOp int

const (
	OpAny ConstraintOp = iota
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpCompatible    // ~=x : at least x, sharing all but x's last segment
	OpStartsWith    // =x or x.* : version begins with x
	OpNotStartsWith // !=x.*
)

// Constraint is one primitive version relation.
type Constraint struct {
	Op      ConstraintOp
	Version version.Version
}

// Matches evaluates the constraint against a version.
func (c Constraint) Matches(v version.Version) bool {
	switch c.Op {
	case OpAny:
		return true
	case OpEqual:
		return v.Equal(c.Version)
	case OpNotEqual:
		return !v.Equal(c.Version)
	case OpLess:
		return v.LessThan(c.Version)
	case OpLessEqual:
		return v.Compare(c.Version) <= 0
	case OpGreater:
		return v.GreaterThan(c.Version)
	case OpGreaterEqual:
		return v.Compare(c.Version) >= 0
	case OpCompatible:
		return v.CompatibleWith(c.Version)
	case OpStartsWith:
		return v.StartsWith(c.Version)
	case OpNotStartsWith:
		return !v.StartsWith(c.Version)
	default:
		return false
	}
}

func (c Constraint) String() string {
	switch c.Op {
	case OpAny:
		return "*"
	case OpEqual:
		return "==" + c.Version.String()
	case OpNotEqual:
		return "!=" + c.Version.String()
	case OpLess:
		return "<" + c.Version.String()
	case OpLessEqual:
		return "<=" + c.Version.String()
	case OpGreater:
		return ">" + c.Version.String()
	case OpGreaterEqual:
		return ">=" + c.Version.String()
	case OpCompatible:
		return "~=" + c.Version.String()
	case OpStartsWith:
		return c.Version.String() + ".*"
	case OpNotStartsWith:
		return "!=" + c.Version.String() + ".*"
	default:
		return "?"
	}
}

// VersionSpec is a version range expression: a disjunction ("|") of
// conjunctions (","). "," binds tighter than "|", so ">=1,<2|>3" reads
// "(>=1 and <2) or >3".
type VersionSpec struct {
	groups [][]Constraint
	raw    string
}

// AnyVersion matches every version.
func AnyVersion() VersionSpec {
	return VersionSpec{raw: "*"}
}

// IsAny reports whether the spec matches every version.
func (s VersionSpec) IsAny() bool {
	return len(s.groups) == 0
}

// Matches evaluates the expression against a version.
func (s VersionSpec) Matches(v version.Version) bool {
	if len(s.groups) == 0 {
		return true
	}
	for _, group := range s.groups {
		all := true
		for _, c := range group {
			if !c.Matches(v) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func (s VersionSpec) String() string {
	if s.raw != "" {
		return s.raw
	}
	return "*"
}

// ParseVersionSpec parses a version range expression.
func ParseVersionSpec(text string) (VersionSpec, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "*" {
		return AnyVersion(), nil
	}

	var groups [][]Constraint
	for _, orPart := range strings.Split(text, "|") {
		orPart = strings.TrimSpace(orPart)
		if orPart == "" {
			return VersionSpec{}, specError(text, "empty alternative in version spec")
		}
		var group []Constraint
		for _, andPart := range strings.Split(orPart, ",") {
			andPart = strings.TrimSpace(andPart)
			if andPart == "" {
				return VersionSpec{}, specError(text, "empty constraint in version spec")
			}
			c, err := parseConstraint(andPart)
			if err != nil {
				return VersionSpec{}, err
			}
			group = append(group, c)
		}
		groups = append(groups, group)
	}

	return VersionSpec{groups: groups, raw: text}, nil
}

// parseConstraint parses one primitive constraint token.
func parseConstraint(token string) (Constraint, error) {
	if token == "*" {
		return Constraint{Op: OpAny}, nil
	}

	op := OpEqual
	rest := token

	switch {
	case strings.HasPrefix(token, "=="):
		op, rest = OpEqual, token[2:]
	case strings.HasPrefix(token, "!="):
		op, rest = OpNotEqual, token[2:]
	case strings.HasPrefix(token, "<="):
		op, rest = OpLessEqual, token[2:]
	case strings.HasPrefix(token, ">="):
		op, rest = OpGreaterEqual, token[2:]
	case strings.HasPrefix(token, "~="):
		op, rest = OpCompatible, token[2:]
	case strings.HasPrefix(token, "<"):
		op, rest = OpLess, token[1:]
	case strings.HasPrefix(token, ">"):
		op, rest = OpGreater, token[1:]
	case strings.HasPrefix(token, "="):
		// Single "=" is the fuzzy prefix match: "=1.2" selects 1.2.*.
		op, rest = OpStartsWith, token[1:]
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return Constraint{}, specError(token, "missing version after operator")
	}

	// A trailing glob turns equality relations into prefix relations and
	// is meaningless (stripped) for ordering relations.
	if strings.HasSuffix(rest, "*") {
		trimmed := strings.TrimSuffix(rest, "*")
		trimmed = strings.TrimSuffix(trimmed, ".")
		switch op {
		case OpEqual, OpStartsWith:
			op = OpStartsWith
		case OpNotEqual:
			op = OpNotStartsWith
		}
		rest = trimmed
		if rest == "" {
			return Constraint{Op: OpAny}, nil
		}
	}

	v, err := version.Parse(rest)
	if err != nil {
		return Constraint{}, err
	}
	return Constraint{Op: op, Version: v}, nil
}

func specError(input, message string) error {
	return errors.Newf(errors.ErrParse, "invalid spec %q: %s", input, message).
		WithDetail("input", input)
}
