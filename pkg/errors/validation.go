package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ValidateReferenceToken validates a raw reference token before parsing.
// It rejects inputs that can never name a package or a file:
//   - No empty tokens
//   - No control characters or null bytes
//   - Maximum length of 4096 characters
func ValidateReferenceToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return New(ErrCodeInvalidIdentifier, "reference cannot be empty")
	}

	const maxTokenLength = 4096
	if len(token) > maxTokenLength {
		return New(ErrCodeInvalidIdentifier, "reference too long (max %d characters)", maxTokenLength)
	}

	for _, r := range token {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIdentifier, "reference contains invalid control characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}
