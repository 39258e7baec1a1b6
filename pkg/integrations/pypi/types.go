package pypi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Project is a simple API project listing (PEP 691).
type Project struct {
	Meta  Meta   `json:"meta"`
	Name  string `json:"name"`
	Files []File `json:"files"`
}

// Meta carries the listing's API version.
type Meta struct {
	APIVersion string `json:"api-version"`
}

// File is one distribution file in a project listing.
type File struct {
	Filename       string            `json:"filename"`
	URL            string            `json:"url"`
	Hashes         map[string]string `json:"hashes"`
	RequiresPython *string           `json:"requires-python"`
	CoreMetadata   CoreMetadata      `json:"core-metadata"`
	GPGSig         bool              `json:"gpg-sig"`
	Yanked         Yanking           `json:"yanked"`
}

// UnmarshalJSON decodes a file record, falling back to the legacy
// "dist-info-metadata" key when "core-metadata" is absent (PEP 714).
func (f *File) UnmarshalJSON(data []byte) error {
	type plain File
	aux := struct {
		*plain
		Core   *CoreMetadata `json:"core-metadata"`
		Legacy *CoreMetadata `json:"dist-info-metadata"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.Core != nil:
		f.CoreMetadata = *aux.Core
	case aux.Legacy != nil:
		f.CoreMetadata = *aux.Legacy
	}
	return nil
}

// Yanking is the yank status of a file. The wire value is either a boolean
// or a reason string; a string always means yanked.
type Yanking struct {
	Yanked bool
	Reason string
}

// UnmarshalJSON accepts true, false, null or a reason string.
func (y *Yanking) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*y = Yanking{}
	case bool:
		*y = Yanking{Yanked: t}
	case string:
		*y = Yanking{Yanked: true, Reason: t}
	default:
		return fmt.Errorf("yanked: unexpected value %s", bytes.TrimSpace(data))
	}
	return nil
}

// CoreMetadata reports whether the index serves the file's METADATA
// separately. Hashes is nil when the index only says "true".
type CoreMetadata struct {
	Present bool
	Hashes  map[string]string
}

// UnmarshalJSON accepts a boolean, null or a hash map.
func (m *CoreMetadata) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*m = CoreMetadata{}
	case bool:
		*m = CoreMetadata{Present: t}
	case map[string]any:
		hashes := make(map[string]string, len(t))
		for alg, digest := range t {
			s, ok := digest.(string)
			if !ok {
				return fmt.Errorf("core-metadata: digest for %s is not a string", alg)
			}
			hashes[alg] = s
		}
		*m = CoreMetadata{Present: true, Hashes: hashes}
	default:
		return fmt.Errorf("core-metadata: unexpected value %s", bytes.TrimSpace(data))
	}
	return nil
}
