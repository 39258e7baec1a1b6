// Package integrations provides the shared HTTP client used by package index
// API clients.
//
// # Overview
//
// Index-specific clients live in subpackages:
//
//   - [pypi]: the Python Package Index simple API (PEP 691 JSON)
//
// # Client Pattern
//
// Index clients embed [Client], which handles:
//   - Default request headers
//   - Retry with exponential backoff for transport failures and 5xx statuses
//   - Response caching through [cache.Cache] with a configurable TTL
//   - Observability hooks for requests and cache lookups
//
// A typical index client wraps its fetch in [Client.Cached]:
//
//	body, err := c.Cached(ctx, url, refresh, func() ([]byte, error) {
//	    return c.Get(ctx, url, map[string]string{"Accept": contentType})
//	})
//
// # Errors
//
// Transport failures are reported as INDEX_UNAVAILABLE and non-2xx statuses
// as INDEX_HTTP_ERROR wrapping an [errors.HTTPStatusError].
//
// [pypi]: github.com/matzehuels/wheelpeek/pkg/integrations/pypi
// [cache.Cache]: github.com/matzehuels/wheelpeek/pkg/cache.Cache
// [errors.HTTPStatusError]: github.com/matzehuels/wheelpeek/pkg/errors.HTTPStatusError
package integrations
