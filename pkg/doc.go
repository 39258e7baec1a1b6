// Package pkg provides the libraries behind wheelpeek.
//
// # Overview
//
// wheelpeek answers one question for a list of Python packages: which
// top-level import names does each wheel install? It reads the answer from
// the wheel's top_level.txt while transferring only the zip central
// directory and that one entry, using HTTP range requests for remote wheels.
//
// # Architecture
//
// The data flow for one reference:
//
//	"requests>=2" or ./dist/foo-1.0-py3-none-any.whl
//	         ↓
//	    [python] package (parse the reference)
//	         ↓
//	    [integrations/pypi] package (fetch the listing, select a wheel)
//	         ↓
//	    [rangeio] package (random-access bytes over HTTP or a file)
//	         ↓
//	    [archive] package (central directory, one entry, lines)
//	         ↓
//	    {"requests": ["requests"]}
//
// [pipeline] runs that flow for many references concurrently and fails
// fast on the first error.
//
// # Quick Start
//
//	runner, err := pipeline.NewRunner(pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	defer runner.Close()
//
//	refs, err := pipeline.ParseReferences([]string{"requests", "numpy==1.26.4"})
//	if err != nil {
//	    return err
//	}
//	result, err := runner.Extract(ctx, refs)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Map()["requests"])
//
// # Main Packages
//
// Domain:
//   - [python]: package names, PEP 440 versions and constraints, references
//   - [archive]: zip central directory reader and entry extractor
//   - [pipeline]: concurrent orchestration shared by the CLI and the API
//
// Infrastructure:
//   - [integrations]: cached, retrying HTTP client base
//   - [integrations/pypi]: PEP 691 simple API client and wheel selection
//   - [rangeio]: seekable byte sources over HTTP ranges and files
//   - [cache]: file, Redis and null listing caches
//   - [httputil]: retry helpers and the shared HTTP client
//   - [observability]: hooks for requests, extractions and cache events
//   - [errors]: coded errors
//   - [buildinfo]: version information
package pkg
