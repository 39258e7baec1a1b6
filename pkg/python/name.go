package python

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/matzehuels/wheelpeek/pkg/errors"
)

// identifierRE matches a complete project identifier: alphanumeric at both
// ends, with ".", "_" and "-" allowed in between.
var identifierRE = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// identifierPrefixRE matches the longest identifier at the start of a string.
var identifierPrefixRE = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)

// Name is a normalized Python project name.
// The zero value is not a valid name; construct one with [ParseName].
type Name string

// ParseName validates raw against the identifier grammar and normalizes it.
// Returns an INVALID_IDENTIFIER error when raw is not a complete identifier.
func ParseName(raw string) (Name, error) {
	if !identifierRE.MatchString(raw) {
		return "", errors.New(errors.ErrCodeInvalidIdentifier, "invalid identifier %q", raw)
	}
	return Name(NormalizeName(raw)), nil
}

// NormalizeName applies full case folding and maps "_" to "-".
// It does not validate; NormalizeName(NormalizeName(x)) == NormalizeName(x).
func NormalizeName(raw string) string {
	// Casers keep internal state, so a fresh one is used per call.
	return strings.ReplaceAll(cases.Fold().String(raw), "_", "-")
}

// String returns the normalized name.
func (n Name) String() string { return string(n) }
