// Package pipeline provides the extraction pipeline for wheelpeek.
//
// This package turns package references into the lines of each wheel's
// top_level.txt. It is used by both the CLI and the HTTP API, so both entry
// points share one behavior.
//
// # Architecture
//
// Each reference passes through these stages:
//
//  1. Resolve: fetch the project listing and select a wheel (requirements
//     only; local paths skip this stage)
//  2. Open: probe the archive and read its central directory
//  3. Extract: find the marker entry and decode it into lines
//
// References are processed concurrently. The first failure cancels every
// other reference and no partial result is returned.
//
// # Usage
//
//	runner, err := pipeline.NewRunner(pipeline.Options{CacheTTL: time.Hour})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Close()
//
//	refs, err := pipeline.ParseReferences([]string{"requests>=2", "./dist/foo-1.0-py3-none-any.whl"})
//	result, err := runner.Extract(ctx, refs)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	json.NewEncoder(os.Stdout).Encode(result.Map())
//
// Run individual stages:
//
//	// Resolve only
//	candidate, err := runner.Resolve(ctx, requirement)
//
//	// Directory only
//	a, err := runner.OpenArchive(ctx, ref)
//	defer a.Close()
//	entries := a.Reader.Entries()
package pipeline

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/matzehuels/wheelpeek/pkg/cache"
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/httputil"
	"github.com/matzehuels/wheelpeek/pkg/integrations/pypi"
	"github.com/matzehuels/wheelpeek/pkg/observability"
	"github.com/matzehuels/wheelpeek/pkg/python"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultIndexURL is the simple API root used when none is configured.
	DefaultIndexURL = pypi.DefaultIndexURL

	// DefaultMarker is the entry name suffix that selects the marker file.
	DefaultMarker = "/top_level.txt"

	// DefaultCacheTTL is how long index listings are cached.
	DefaultCacheTTL = time.Hour

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = httputil.DefaultTimeout

	// DefaultAttempts bounds retries of transient network failures.
	DefaultAttempts = httputil.DefaultAttempts
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the extraction pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Index options
	IndexURL string        `json:"index_url,omitempty"`
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`
	Refresh  bool          `json:"refresh,omitempty"`

	// Transport options
	Timeout    time.Duration `json:"timeout,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	RetryDelay time.Duration `json:"retry_delay,omitempty"`

	// Extraction options
	Marker      string `json:"marker,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"` // 0 = one task per reference

	// Runtime options (not serialized)
	HTTP   *http.Client        `json:"-"` // Shared pooled client; built from Timeout when nil
	Cache  cache.Cache         `json:"-"` // Listing cache; nil disables caching
	Fs     afero.Fs            `json:"-"` // Filesystem for local paths; defaults to the OS
	Hooks  observability.Hooks `json:"-"`
	Logger *log.Logger         `json:"-"`
}

// ValidateAndSetDefaults checks option values and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.IndexURL == "" {
		o.IndexURL = DefaultIndexURL
	}
	if err := errors.ValidateURL(o.IndexURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "index URL")
	}
	if o.CacheTTL < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cache TTL must not be negative")
	}
	if o.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout must not be negative")
	}
	if o.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "attempts must not be negative")
	}
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = httputil.DefaultDelay
	}
	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must not be negative")
	}
	if o.Marker == "" {
		o.Marker = DefaultMarker
	}
	if o.HTTP == nil {
		o.HTTP = httputil.NewClient(o.Timeout)
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	o.Hooks = o.Hooks.WithDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Extraction is the outcome for one reference.
type Extraction struct {
	Name   string   `json:"name"`   // Normalized package name
	Ref    string   `json:"ref"`    // Reference as given
	Source string   `json:"source"` // Archive URL or local path
	Lines  []string `json:"lines"`  // Marker lines; empty when the marker is absent
}

// Result holds one Extraction per reference, in input order.
type Result struct {
	Extractions []Extraction `json:"extractions"`
}

// Map returns name -> lines. When two references share a name, the later
// one wins.
func (r Result) Map() map[string][]string {
	m := make(map[string][]string, len(r.Extractions))
	for _, e := range r.Extractions {
		m[e.Name] = e.Lines
	}
	return m
}

// ParseReferences parses every token into a reference, stopping at the
// first invalid one.
func ParseReferences(tokens []string) ([]python.Reference, error) {
	if len(tokens) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "at least one reference is required")
	}
	refs := make([]python.Reference, 0, len(tokens))
	for _, tok := range tokens {
		ref, err := python.ParseReference(tok)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
