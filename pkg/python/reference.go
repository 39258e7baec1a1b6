package python

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/wheelpeek/pkg/errors"
)

// Reference identifies a wheel to inspect. It is one of [Requirement] or
// [LocalPath]; switch on the concrete type to branch.
type Reference interface {
	// Key is the name results for this reference are reported under.
	Key() string
	String() string
	isReference()
}

// Requirement names a project on the package index, optionally restricted
// by a version constraint.
type Requirement struct {
	Name       Name
	Constraint *Constraint // nil means any version
}

// Key returns the normalized project name.
func (r Requirement) Key() string { return r.Name.String() }

// String renders the requirement as name followed by its constraint.
func (r Requirement) String() string { return r.Name.String() + r.Constraint.String() }

func (Requirement) isReference() {}

// LocalPath is a wheel on the local filesystem.
type LocalPath string

// Key derives the result name from the file name: the project name when the
// base name is a wheel filename, otherwise the normalized base name.
func (p LocalPath) Key() string {
	base := filepath.Base(string(p))
	if w, err := ParseWheelFilename(base); err == nil {
		return w.Name.String()
	}
	return NormalizeName(base)
}

// String returns the path as given.
func (p LocalPath) String() string { return string(p) }

func (LocalPath) isReference() {}

// ParseReference interprets a single input token.
//
// A token ending in ".whl" is always a [LocalPath]. Anything else is read as
// a requirement: an identifier followed by an optional PEP 440 specifier set
// ("foo", "foo==1.0", "foo >=1,<2"), falling back to a [LocalPath] when that
// grammar does not match. Only empty or control-character tokens are rejected.
func ParseReference(token string) (Reference, error) {
	if err := errors.ValidateReferenceToken(token); err != nil {
		return nil, err
	}
	if strings.HasSuffix(token, wheelSuffix) {
		return LocalPath(token), nil
	}
	if req, err := ParseRequirement(token); err == nil {
		return req, nil
	}
	return LocalPath(token), nil
}

// ParseRequirement parses "name[specifiers]" strictly.
func ParseRequirement(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	raw := identifierPrefixRE.FindString(s)
	if raw == "" {
		return Requirement{}, errors.New(errors.ErrCodeInvalidIdentifier, "invalid identifier in %q", s)
	}
	name, err := ParseName(raw)
	if err != nil {
		return Requirement{}, err
	}
	req := Requirement{Name: name}
	if rest := strings.TrimSpace(s[len(raw):]); rest != "" {
		c, err := ParseConstraint(rest)
		if err != nil {
			return Requirement{}, err
		}
		req.Constraint = c
	}
	return req, nil
}
