package pypi

import (
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/python"
)

// Candidate is a listing file together with its parsed wheel filename.
type Candidate struct {
	File  File
	Wheel python.WheelFilename
}

// SelectWheel picks the highest-versioned wheel in project that satisfies
// constraint. A nil constraint accepts any version.
//
// Files whose names do not parse as wheels are skipped, and yanked files are
// never selected, not even when the constraint pins their exact version.
// Among equal versions the first listed file wins.
func SelectWheel(project *Project, constraint *python.Constraint) (*Candidate, error) {
	var best *Candidate
	for _, f := range project.Files {
		if f.Yanked.Yanked {
			continue
		}
		wheel, err := python.ParseWheelFilename(f.Filename)
		if err != nil {
			continue
		}
		if !constraint.Allows(wheel.Version) {
			continue
		}
		if best == nil || wheel.Version.Compare(best.Wheel.Version) > 0 {
			best = &Candidate{File: f, Wheel: wheel}
		}
	}
	if best == nil {
		if constraint == nil {
			return nil, errors.New(errors.ErrCodeNoMatchingArchive, "no installable wheel for %s", project.Name)
		}
		return nil, errors.New(errors.ErrCodeNoMatchingArchive, "no installable wheel for %s%s", project.Name, constraint)
	}
	return best, nil
}
