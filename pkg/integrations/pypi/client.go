package pypi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/wheelpeek/pkg/buildinfo"
	"github.com/matzehuels/wheelpeek/pkg/cache"
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/integrations"
	"github.com/matzehuels/wheelpeek/pkg/observability"
	"github.com/matzehuels/wheelpeek/pkg/python"
)

const (
	// DefaultIndexURL is the public PyPI simple API.
	DefaultIndexURL = "https://pypi.org/simple"

	// ContentType is the PEP 691 JSON media type requested from the index.
	ContentType = "application/vnd.pypi.simple.v1+json"
)

// Options configures a [Client]. Zero values select defaults.
type Options struct {
	IndexURL   string        // Simple API root; defaults to DefaultIndexURL
	HTTP       *http.Client  // Shared pooled client; defaults to a new one
	Cache      cache.Cache   // Listing cache; defaults to no caching
	TTL        time.Duration // Listing lifetime in the cache; 0 disables caching
	Attempts   int           // Attempts per listing for transient failures
	RetryDelay time.Duration // Initial backoff between attempts
	Hooks      observability.Hooks
}

// Client fetches project listings from a simple API index.
//
// Concurrent requests for the same project share one fetch.
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	group   singleflight.Group
}

// NewClient creates a simple API client.
func NewClient(opts Options) *Client {
	base := opts.IndexURL
	if base == "" {
		base = DefaultIndexURL
	}
	ic := integrations.NewClient(opts.Cache, "simple", opts.TTL, map[string]string{
		"Accept":     ContentType,
		"User-Agent": buildinfo.UserAgent(),
	}).
		WithHTTPClient(opts.HTTP).
		WithRetry(opts.Attempts, opts.RetryDelay).
		WithHooks(opts.Hooks)
	return &Client{
		Client:  ic,
		baseURL: strings.TrimRight(base, "/"),
	}
}

// IndexURL returns the simple API root this client queries.
func (c *Client) IndexURL() string { return c.baseURL }

// ProjectURL returns the listing URL for a normalized project name.
func (c *Client) ProjectURL(name python.Name) string {
	return c.baseURL + "/" + url.PathEscape(name.String()) + "/"
}

// FetchProject retrieves the file listing for name.
//
// If refresh is true, the cache is bypassed and a fresh listing is stored.
// When several goroutines ask for the same project at once, one request is
// made and all callers share its result. That request keeps the first
// caller's context values but not its cancellation; each caller stops
// waiting when its own ctx is done.
//
// Returns:
//   - INDEX_UNAVAILABLE when the index cannot be reached
//   - INDEX_HTTP_ERROR for non-success statuses (including 404)
//   - INDEX_MALFORMED when the body is not a listing
//
// File URLs in the returned listing are absolute.
func (c *Client) FetchProject(ctx context.Context, name python.Name, refresh bool) (*Project, error) {
	projectURL := c.ProjectURL(name)
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(projectURL, func() (any, error) {
		ctx := shared
		var project *Project
		body, err := c.Cached(ctx, projectURL, refresh, func() ([]byte, error) {
			body, err := c.Get(ctx, projectURL, nil)
			if err != nil {
				return nil, err
			}
			// Only well-formed listings reach the cache.
			project, err = decodeProject(body, projectURL)
			return body, err
		})
		if err != nil {
			return nil, err
		}
		if project == nil {
			return decodeProject(body, projectURL)
		}
		return project, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Project), nil
	}
}

// decodeProject parses a listing body and resolves file URLs against
// projectURL.
func decodeProject(body []byte, projectURL string) (*Project, error) {
	var raw struct {
		Project
		Files *[]File `json:"files"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexMalformed, err, "decode listing from %s", projectURL)
	}
	if raw.Files == nil {
		return nil, errors.New(errors.ErrCodeIndexMalformed, "listing from %s has no files field", projectURL)
	}

	base, err := url.Parse(projectURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", projectURL)
	}
	project := raw.Project
	project.Files = *raw.Files
	for i := range project.Files {
		ref, err := url.Parse(project.Files[i].URL)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexMalformed, err, "file %s has a bad URL", project.Files[i].Filename)
		}
		project.Files[i].URL = base.ResolveReference(ref).String()
	}
	return &project, nil
}
