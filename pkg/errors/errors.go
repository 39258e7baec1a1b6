// Package errors provides structured error types for wheelpeek.
//
// Every failure that can end an extraction carries a machine-readable [Code],
// so the CLI and the HTTP API can report the same taxonomy:
//
//   - INVALID_*: Input validation failures (identifiers, version constraints)
//   - INDEX_*: Package index failures (transport, HTTP status, response shape)
//   - NO_MATCHING_ARCHIVE: Resolution found no eligible wheel
//   - RANGE_UNSUPPORTED, NOT_AN_ARCHIVE, CORRUPT_DIRECTORY,
//     UNSUPPORTED_COMPRESSION, INVALID_TEXT: Archive access failures
//   - LOCAL_FILE_UNAVAILABLE: A local archive could not be opened
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidIdentifier, "invalid package name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidIdentifier) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeIndexUnavailable, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput             Code = "INVALID_INPUT"
	ErrCodeInvalidIdentifier        Code = "INVALID_IDENTIFIER"
	ErrCodeInvalidVersionConstraint Code = "INVALID_VERSION_CONSTRAINT"

	// Index errors
	ErrCodeIndexUnavailable Code = "INDEX_UNAVAILABLE"
	ErrCodeIndexHTTPError   Code = "INDEX_HTTP_ERROR"
	ErrCodeIndexMalformed   Code = "INDEX_MALFORMED"

	// Resolution errors
	ErrCodeNoMatchingArchive Code = "NO_MATCHING_ARCHIVE"

	// Archive access errors
	ErrCodeRangeUnsupported       Code = "RANGE_UNSUPPORTED"
	ErrCodeNotAnArchive           Code = "NOT_AN_ARCHIVE"
	ErrCodeCorruptDirectory       Code = "CORRUPT_DIRECTORY"
	ErrCodeUnsupportedCompression Code = "UNSUPPORTED_COMPRESSION"
	ErrCodeInvalidText            Code = "INVALID_TEXT"
	ErrCodeLocalFileUnavailable   Code = "LOCAL_FILE_UNAVAILABLE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost *Error in the chain is consulted, so a wrapping layer
// can reclassify an inner failure.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// HTTPStatusError reports a non-success HTTP status from the package index
// or an archive host.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
