package python

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"

	"github.com/matzehuels/wheelpeek/pkg/errors"
)

// Version is a PEP 440 version that remembers its original spelling.
type Version struct {
	raw    string
	parsed pep440.Version
}

// ParseVersion parses a PEP 440 version string.
func ParseVersion(raw string) (Version, error) {
	v, err := pep440.Parse(raw)
	if err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersionConstraint, err, "invalid version %q", raw)
	}
	return Version{raw: raw, parsed: v}, nil
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to,
// or after other under PEP 440 ordering.
func (v Version) Compare(other Version) int {
	return v.parsed.Compare(other.parsed)
}

// String returns the version exactly as it was parsed.
func (v Version) String() string { return v.raw }

// Constraint is a set of PEP 440 version specifiers such as ">=1.0,<2".
// A nil *Constraint allows every version.
type Constraint struct {
	raw   string
	specs pep440.Specifiers
}

// ParseConstraint parses a specifier set. Surrounding whitespace is ignored.
// Pre-releases are matched like any other version.
func ParseConstraint(raw string) (*Constraint, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New(errors.ErrCodeInvalidVersionConstraint, "empty version constraint")
	}
	specs, err := pep440.NewSpecifiers(s, pep440.WithPreRelease(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidVersionConstraint, err, "invalid version constraint %q", s)
	}
	return &Constraint{raw: s, specs: specs}, nil
}

// Allows reports whether v satisfies the constraint.
// A nil constraint allows every version.
func (c *Constraint) Allows(v Version) bool {
	if c == nil {
		return true
	}
	return c.specs.Check(v.parsed)
}

// String returns the constraint as written (trimmed), or "" for nil.
func (c *Constraint) String() string {
	if c == nil {
		return ""
	}
	return c.raw
}
