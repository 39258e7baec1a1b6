// Package pypi provides a client for the Python Package Index simple API.
//
// # Overview
//
// This package fetches project listings in the PEP 691 JSON form from
// https://pypi.org/simple (or any compatible index) and selects the wheel
// to inspect.
//
// # Usage
//
//	client := pypi.NewClient(pypi.Options{HTTP: shared, Cache: c, TTL: time.Hour})
//
//	project, err := client.FetchProject(ctx, "requests", false) // false = use cache
//	if err != nil {
//	    return err
//	}
//	candidate, err := pypi.SelectWheel(project, constraint)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(candidate.Wheel.Version, candidate.File.URL)
//
// # Listing Fields
//
// Two fields accept more than one JSON shape:
//
//   - yanked: true, false, null or a reason string (a string means yanked)
//   - core-metadata: true, false, null or a map of digests; the legacy
//     dist-info-metadata key is used when core-metadata is missing
//
// # Selection
//
// [SelectWheel] skips files that are not wheels, skips yanked files
// unconditionally and returns the maximum PEP 440 version that satisfies the
// constraint.
//
// # Caching
//
// Listings are cached through the shared [integrations.Client] for the
// configured TTL. Pass refresh=true to [Client.FetchProject] to bypass the
// cache.
//
// [integrations.Client]: github.com/matzehuels/wheelpeek/pkg/integrations.Client
package pypi
