package integrations

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/wheelpeek/pkg/cache"
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/httputil"
	"github.com/matzehuels/wheelpeek/pkg/observability"
)

// Client provides shared HTTP functionality for index API clients.
// It handles caching, retry logic, and common request headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	namespace string
	ttl       time.Duration
	headers   map[string]string
	attempts  int
	delay     time.Duration
	hooks     observability.Hooks
}

// NewClient creates a Client with the given cache and default headers.
// Cache keys are prefixed with namespace; a ttl of 0 disables caching.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      httputil.NewClient(httputil.DefaultTimeout),
		cache:     c,
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		attempts:  httputil.DefaultAttempts,
		delay:     httputil.DefaultDelay,
		hooks:     observability.Hooks{}.WithDefaults(),
	}
}

// WithHTTPClient replaces the underlying HTTP client. Use it to share one
// pooled client across every component.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

// WithRetry sets how often a transient failure is retried and the initial
// backoff between attempts.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	if attempts > 0 {
		c.attempts = attempts
	}
	if delay > 0 {
		c.delay = delay
	}
	return c
}

// WithHooks installs observability hooks. Nil fields stay no-ops.
func (c *Client) WithHooks(h observability.Hooks) *Client {
	c.hooks = h.WithDefaults()
	return c
}

// Cached returns the value stored under key, or calls fetch (with retries)
// and stores its result. If refresh is true, the cache is bypassed for the
// read but the fresh value is still stored. Cache failures never fail the call.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	key = cache.Key(c.namespace, key)
	if !refresh && c.ttl > 0 {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			c.hooks.Cache.OnCacheHit(ctx, c.namespace)
			return data, nil
		}
		c.hooks.Cache.OnCacheMiss(ctx, c.namespace)
	}

	var data []byte
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		data, err = fetch()
		return err
	})
	if err != nil {
		return nil, unwrapRetryable(err)
	}

	if c.ttl > 0 {
		if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
			c.hooks.Cache.OnCacheSet(ctx, c.namespace, len(data))
		}
	}
	return data, nil
}

// Get performs a single HTTP GET and returns the response body.
// Request-specific headers override client defaults for the same key.
//
// Errors:
//   - INDEX_UNAVAILABLE (retryable) on transport failures
//   - INDEX_HTTP_ERROR wrapping *errors.HTTPStatusError on non-2xx statuses;
//     5xx statuses are marked retryable
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.hooks.HTTP.OnRequest(ctx, http.MethodGet, url, "")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.hooks.HTTP.OnError(ctx, http.MethodGet, url, err)
		return nil, transportError(ctx, err, url)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, url); err != nil {
		c.hooks.HTTP.OnResponse(ctx, http.MethodGet, url, resp.StatusCode, 0, time.Since(start))
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	c.hooks.HTTP.OnResponse(ctx, http.MethodGet, url, resp.StatusCode, int64(len(body)), time.Since(start))
	if err != nil {
		return nil, transportError(ctx, err, url)
	}
	return body, nil
}

func transportError(ctx context.Context, err error, url string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeIndexUnavailable, err, "request %s", url)}
}

func checkStatus(code int, url string) error {
	if code >= 200 && code <= 299 {
		return nil
	}
	err := errors.Wrap(errors.ErrCodeIndexHTTPError,
		&errors.HTTPStatusError{StatusCode: code, URL: url}, "index request failed")
	if code >= 500 {
		return &httputil.RetryableError{Err: err}
	}
	return err
}

// unwrapRetryable strips the retry marker once retries are exhausted so
// callers see the classified error.
func unwrapRetryable(err error) error {
	if re, ok := err.(*httputil.RetryableError); ok {
		return re.Err
	}
	return err
}
