// Package python models Python package identifiers without doing any I/O.
//
// # Names
//
// [Name] is a project name normalized for comparison: full Unicode case
// folding followed by mapping "_" to "-". Two names that differ only in case
// or in the choice of "_" versus "-" normalize to the same value:
//
//	a, _ := python.ParseName("Foo_Bar")
//	b, _ := python.ParseName("foo-bar")
//	a == b // true
//
// # References
//
// A [Reference] is what a user types: either a requirement such as
// "requests>=2,<3" or a path to a local wheel. [ParseReference] tries the
// requirement grammar first and falls back to a path, so malformed
// requirement-looking tokens surface later as a missing file rather than a
// parse error here.
//
// # Wheel Filenames
//
// [ParseWheelFilename] splits "<name>-<version>-<tags>.whl" into its parts.
// Versions follow PEP 440 and are compared with [Version.Compare].
package python
