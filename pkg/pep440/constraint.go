package pep440

import (
	"fmt"
	"strings"
)

// Op is a version comparison operator from PEP 440.
type Op string

// Supported comparison operators.
const (
	OpEq         Op = "=="
	OpNe         Op = "!="
	OpGe         Op = ">="
	OpGt         Op = ">"
	OpLe         Op = "<="
	OpLt         Op = "<"
	OpCompatible Op = "~="
)

// ops is ordered longest-first so "==" is tried before "=".
var ops = []Op{OpCompatible, OpEq, OpNe, OpGe, OpLe, OpGt, OpLt}

// Constraint is a single version clause such as "==1.2.3" or ">=2.0".
// Wildcard equality ("==1.4.*") is supported as a release-prefix match.
type Constraint struct {
	Op       Op
	Version  Version
	Wildcard bool // "==N.N.*" prefix match; only valid with == and !=

	raw string
}

// ParseConstraint parses a single specifier clause. Compound specifiers
// (comma-separated clauses) are not supported here; callers split first.
func ParseConstraint(s string) (Constraint, error) {
	raw := strings.TrimSpace(s)
	for _, op := range ops {
		rest, ok := strings.CutPrefix(raw, string(op))
		if !ok {
			continue
		}
		c := Constraint{Op: op, raw: raw}
		rest = strings.TrimSpace(rest)
		if trimmed, wild := strings.CutSuffix(rest, ".*"); wild {
			if op != OpEq && op != OpNe {
				return Constraint{}, fmt.Errorf("wildcard not allowed with %s", op)
			}
			c.Wildcard = true
			rest = trimmed
		}
		v, err := Parse(rest)
		if err != nil {
			return Constraint{}, fmt.Errorf("constraint %q: %w", s, err)
		}
		c.Version = v
		return c, nil
	}
	return Constraint{}, fmt.Errorf("constraint %q: no comparison operator", s)
}

// String returns the clause as originally written.
func (c Constraint) String() string { return c.raw }

// Check reports whether v satisfies the constraint.
func (c Constraint) Check(v Version) bool {
	if c.Wildcard {
		match := v.Epoch == c.Version.Epoch && releasePrefixEq(v, c.Version)
		if c.Op == OpNe {
			return !match
		}
		return match
	}
	cmp := Compare(v, c.Version)
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpGe:
		return cmp >= 0
	case OpGt:
		return cmp > 0
	case OpLe:
		return cmp <= 0
	case OpLt:
		return cmp < 0
	case OpCompatible:
		// ~=2.2 means >=2.2, ==2.*; ~=1.4.5 means >=1.4.5, ==1.4.*.
		if cmp < 0 {
			return false
		}
		n := len(c.Version.Release) - 1
		if n < 1 {
			return false
		}
		if v.Epoch != c.Version.Epoch {
			return false
		}
		for i := 0; i < n; i++ {
			if v.Component(i) != c.Version.Component(i) {
				return false
			}
		}
		return true
	}
	return false
}

// releasePrefixEq reports whether v's release starts with the full
// release tuple of prefix (the wildcard pattern).
func releasePrefixEq(v, prefix Version) bool {
	for i := range prefix.Release {
		if v.Component(i) != prefix.Release[i] {
			return false
		}
	}
	return true
}

// MaxSatisfying returns the largest version in vs that satisfies c.
// A nil constraint accepts every version.
func MaxSatisfying(vs []Version, c *Constraint) (Version, bool) {
	var best Version
	found := false
	for _, v := range vs {
		if c != nil && !c.Check(v) {
			continue
		}
		if !found || Compare(v, best) > 0 {
			best = v
			found = true
		}
	}
	return best, found
}
