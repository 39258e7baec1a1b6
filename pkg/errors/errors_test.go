package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidIdentifier, "test message: %s", "value")

	if err.Code != ErrCodeInvalidIdentifier {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidIdentifier)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_IDENTIFIER: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeIndexUnavailable, cause, "failed to fetch")

	if err.Code != ErrCodeIndexUnavailable {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeIndexUnavailable)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeNotAnArchive, "test"),
			code:     ErrCodeNotAnArchive,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeNotAnArchive, "test"),
			code:     ErrCodeCorruptDirectory,
			expected: false,
		},
		{
			name:     "outer code wins",
			err:      Wrap(ErrCodeIndexUnavailable, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodeIndexUnavailable,
			expected: true,
		},
		{
			name:     "plain wrapping keeps code",
			err:      errors.Join(errors.New("context"), New(ErrCodeInvalidText, "bad utf-8")),
			code:     ErrCodeInvalidText,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeNoMatchingArchive, "test"), ErrCodeNoMatchingArchive},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "Error with cause",
			err:      Wrap(ErrCodeIndexUnavailable, errors.New("connection refused"), "fetch foo"),
			expected: "fetch foo: connection refused",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHTTPStatusError(t *testing.T) {
	err := Wrap(ErrCodeIndexHTTPError, &HTTPStatusError{StatusCode: 404, URL: "https://example.com/simple/foo/"}, "fetch foo")

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatal("errors.As should find HTTPStatusError")
	}
	if statusErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
	expected := "unexpected status 404 from https://example.com/simple/foo/"
	if statusErr.Error() != expected {
		t.Errorf("Error() = %v, want %v", statusErr.Error(), expected)
	}
}
