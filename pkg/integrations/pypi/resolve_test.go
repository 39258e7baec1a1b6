package pypi

import (
	"testing"

	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/python"
)

func listing(files ...File) *Project {
	return &Project{Name: "foo", Files: files}
}

func wheel(version string) File {
	return File{
		Filename: "foo-" + version + "-py3-none-any.whl",
		URL:      "https://files.example/foo-" + version + "-py3-none-any.whl",
	}
}

func yanked(f File) File {
	f.Yanked = Yanking{Yanked: true}
	return f
}

func mustConstraint(t *testing.T, s string) *python.Constraint {
	t.Helper()
	c, err := python.ParseConstraint(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSelectWheel(t *testing.T) {
	project := listing(wheel("1.0.0"), wheel("1.2.0"), yanked(wheel("2.0.0")))

	tests := []struct {
		name       string
		constraint string
		want       string
		wantCode   errors.Code
	}{
		{"no constraint skips yanked", "", "1.2.0", ""},
		{"exact", "==1.0.0", "1.0.0", ""},
		{"range", ">=1.0,<1.2", "1.0.0", ""},
		{"compatible release", "~=1.0", "1.2.0", ""},
		{"yanked exact pin", "==2.0.0", "", errors.ErrCodeNoMatchingArchive},
		{"nothing allowed", ">3", "", errors.ErrCodeNoMatchingArchive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c *python.Constraint
			if tt.constraint != "" {
				c = mustConstraint(t, tt.constraint)
			}
			got, err := SelectWheel(project, c)
			if tt.wantCode != "" {
				if !errors.Is(err, tt.wantCode) {
					t.Errorf("SelectWheel() error = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectWheel() error: %v", err)
			}
			if got.Wheel.Version.String() != tt.want {
				t.Errorf("SelectWheel() = %s, want %s", got.Wheel.Version, tt.want)
			}
			if got.File.Filename != "foo-"+tt.want+"-py3-none-any.whl" {
				t.Errorf("SelectWheel() file = %s", got.File.Filename)
			}
		})
	}
}

func TestSelectWheel_SkipsNonWheels(t *testing.T) {
	project := listing(
		File{Filename: "foo-3.0.0.tar.gz"},
		File{Filename: "foo-3.0.0.whl"},
		File{Filename: "foo-bad version-py3-none-any.whl"},
		wheel("1.0.0"),
	)
	got, err := SelectWheel(project, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Wheel.Version.String() != "1.0.0" {
		t.Errorf("SelectWheel() = %s, want 1.0.0", got.Wheel.Version)
	}
}

func TestSelectWheel_PEP440Ordering(t *testing.T) {
	project := listing(wheel("1.10.0"), wheel("1.9.0"), wheel("1.10.0rc1"), wheel("1.2"))
	got, err := SelectWheel(project, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Wheel.Version.String() != "1.10.0" {
		t.Errorf("SelectWheel() = %s, want 1.10.0", got.Wheel.Version)
	}
}

func TestSelectWheel_EmptyListing(t *testing.T) {
	_, err := SelectWheel(listing(), nil)
	if !errors.Is(err, errors.ErrCodeNoMatchingArchive) {
		t.Errorf("SelectWheel() error = %v, want NO_MATCHING_ARCHIVE", err)
	}
}
