package python

import (
	"strings"

	"github.com/matzehuels/wheelpeek/pkg/errors"
)

const wheelSuffix = ".whl"

// WheelFilename is the decomposition of "<name>-<version>-<tags>.whl".
type WheelFilename struct {
	Name    Name
	Version Version
	Tags    string // e.g. "py3-none-any"; not interpreted
}

// ParseWheelFilename parses a wheel filename. The stem must split on "-"
// into name, version and a tag string, and both name and version must
// satisfy their grammars.
func ParseWheelFilename(filename string) (WheelFilename, error) {
	stem, ok := strings.CutSuffix(filename, wheelSuffix)
	if !ok {
		return WheelFilename{}, errors.New(errors.ErrCodeInvalidIdentifier, "not a wheel file: %q", filename)
	}
	parts := strings.SplitN(stem, "-", 3)
	if len(parts) != 3 || parts[2] == "" {
		return WheelFilename{}, errors.New(errors.ErrCodeInvalidIdentifier, "invalid wheel filename: %q", filename)
	}
	name, err := ParseName(parts[0])
	if err != nil {
		return WheelFilename{}, err
	}
	version, err := ParseVersion(parts[1])
	if err != nil {
		return WheelFilename{}, err
	}
	return WheelFilename{Name: name, Version: version, Tags: parts[2]}, nil
}

// String reassembles the filename from its normalized parts.
func (w WheelFilename) String() string {
	return w.Name.String() + "-" + w.Version.String() + "-" + w.Tags + wheelSuffix
}
