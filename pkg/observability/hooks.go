// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks are plain interfaces with no-op defaults. They are injected into the
// components that emit events (the index client, the ranged byte source and
// the pipeline runner) rather than registered globally, so two runners in one
// process can report to different sinks.
//
// # Usage
//
//	counter := &observability.TransferCounter{}
//	hooks := observability.Hooks{HTTP: counter}
//	runner := pipeline.NewRunner(client, pipeline.Options{Hooks: hooks})
//	// ... run extraction ...
//	fmt.Println(counter.Bytes(), "bytes over", counter.Requests(), "requests")
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// HTTPHooks receives events from outgoing HTTP requests.
type HTTPHooks interface {
	// OnRequest records an outgoing request. rangeSpec is the Range header
	// value, empty for whole-resource requests.
	OnRequest(ctx context.Context, method, url, rangeSpec string)

	// OnResponse records a completed response and the number of body bytes
	// that were read from it.
	OnResponse(ctx context.Context, method, url string, statusCode int, bodyBytes int64, duration time.Duration)

	// OnError records a transport failure (connection error, timeout).
	OnError(ctx context.Context, method, url string, err error)
}

// ExtractHooks receives events from the extraction pipeline.
type ExtractHooks interface {
	OnExtractStart(ctx context.Context, ref string)
	OnExtractComplete(ctx context.Context, ref string, lines int, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// Hooks bundles every hook category. Nil fields behave as no-ops.
type Hooks struct {
	HTTP    HTTPHooks
	Extract ExtractHooks
	Cache   CacheHooks
}

// WithDefaults returns a copy of h with nil fields replaced by no-ops.
func (h Hooks) WithDefaults() Hooks {
	if h.HTTP == nil {
		h.HTTP = NoopHTTPHooks{}
	}
	if h.Extract == nil {
		h.Extract = NoopExtractHooks{}
	}
	if h.Cache == nil {
		h.Cache = NoopCacheHooks{}
	}
	return h
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, int64, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, error)                         {}

// NoopExtractHooks is a no-op implementation of ExtractHooks.
type NoopExtractHooks struct{}

func (NoopExtractHooks) OnExtractStart(context.Context, string)                             {}
func (NoopExtractHooks) OnExtractComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// MultiHTTPHooks forwards every event to each hook in order.
type MultiHTTPHooks []HTTPHooks

func (m MultiHTTPHooks) OnRequest(ctx context.Context, method, url, rangeSpec string) {
	for _, h := range m {
		h.OnRequest(ctx, method, url, rangeSpec)
	}
}

func (m MultiHTTPHooks) OnResponse(ctx context.Context, method, url string, statusCode int, bodyBytes int64, duration time.Duration) {
	for _, h := range m {
		h.OnResponse(ctx, method, url, statusCode, bodyBytes, duration)
	}
}

func (m MultiHTTPHooks) OnError(ctx context.Context, method, url string, err error) {
	for _, h := range m {
		h.OnError(ctx, method, url, err)
	}
}

// =============================================================================
// Transfer Accounting
// =============================================================================

// TransferCounter is an HTTPHooks implementation that totals requests and
// body bytes. It is safe for concurrent use.
type TransferCounter struct {
	NoopHTTPHooks
	requests atomic.Int64
	bytes    atomic.Int64
	failures atomic.Int64
}

// OnRequest counts a request.
func (c *TransferCounter) OnRequest(context.Context, string, string, string) {
	c.requests.Add(1)
}

// OnResponse adds the body bytes read.
func (c *TransferCounter) OnResponse(_ context.Context, _, _ string, _ int, bodyBytes int64, _ time.Duration) {
	c.bytes.Add(bodyBytes)
}

// OnError counts a transport failure.
func (c *TransferCounter) OnError(context.Context, string, string, error) {
	c.failures.Add(1)
}

// Requests returns the number of requests issued.
func (c *TransferCounter) Requests() int64 { return c.requests.Load() }

// Bytes returns the total response body bytes read.
func (c *TransferCounter) Bytes() int64 { return c.bytes.Load() }

// Failures returns the number of transport failures.
func (c *TransferCounter) Failures() int64 { return c.failures.Load() }
