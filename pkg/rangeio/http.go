package rangeio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/wheelpeek/pkg/buildinfo"
	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/httputil"
	"github.com/matzehuels/wheelpeek/pkg/observability"
)

// HTTPOptions configures an [HTTPSource]. Zero values select defaults.
type HTTPOptions struct {
	// Attempts bounds how often one range is requested when the transport
	// fails. Defaults to httputil.DefaultAttempts.
	Attempts int

	// RetryDelay is the initial backoff between attempts.
	// Defaults to httputil.DefaultDelay.
	RetryDelay time.Duration

	// Hooks receives one event per request. Defaults to a no-op.
	Hooks observability.HTTPHooks
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Attempts <= 0 {
		o.Attempts = httputil.DefaultAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = httputil.DefaultDelay
	}
	if o.Hooks == nil {
		o.Hooks = observability.NoopHTTPHooks{}
	}
	return o
}

// HTTPSource is a [Source] that reads a remote object through HTTP range
// requests. The context given to [OpenHTTP] governs every request; cancel it
// to abort in-flight reads.
type HTTPSource struct {
	ctx    context.Context
	client *http.Client
	url    string
	opts   HTTPOptions
	size   int64
	offset int64
}

// OpenHTTP probes url with a HEAD request and returns a source positioned at
// offset 0. The client is shared and never closed by the source.
//
// Errors:
//   - INDEX_UNAVAILABLE when the probe cannot reach the server
//   - INDEX_HTTP_ERROR (wrapping *errors.HTTPStatusError) on a non-2xx status
//   - RANGE_UNSUPPORTED without Content-Length or "Accept-Ranges: bytes"
func OpenHTTP(ctx context.Context, client *http.Client, url string, opts HTTPOptions) (*HTTPSource, error) {
	s := &HTTPSource{ctx: ctx, client: client, url: url, opts: opts.withDefaults()}
	if err := httputil.Retry(ctx, s.opts.Attempts, s.opts.RetryDelay, s.probe); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HTTPSource) probe() error {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", s.url)
	}
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	s.opts.Hooks.OnRequest(s.ctx, http.MethodHead, s.url, "")
	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.opts.Hooks.OnError(s.ctx, http.MethodHead, s.url, err)
		return transportError(s.ctx, err, s.url)
	}
	resp.Body.Close()
	s.opts.Hooks.OnResponse(s.ctx, http.MethodHead, s.url, resp.StatusCode, 0, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrap(errors.ErrCodeIndexHTTPError,
			&errors.HTTPStatusError{StatusCode: resp.StatusCode, URL: s.url}, "probe archive")
	}
	if resp.ContentLength < 0 {
		return errors.New(errors.ErrCodeRangeUnsupported, "%s: server did not report Content-Length", s.url)
	}
	if !acceptsByteRanges(resp.Header) {
		return errors.New(errors.ErrCodeRangeUnsupported, "%s: server does not accept byte ranges", s.url)
	}
	s.size = resp.ContentLength
	return nil
}

// Read fills p from the current offset with a single range request.
// It reads fewer bytes than len(p) only at the end of the object.
func (s *HTTPSource) Read(p []byte) (int, error) {
	if s.offset >= s.size {
		return 0, io.EOF
	}
	n := int(min(int64(len(p)), s.size-s.offset))
	if n == 0 {
		return 0, nil
	}

	var got int
	err := httputil.Retry(s.ctx, s.opts.Attempts, s.opts.RetryDelay, func() error {
		var err error
		got, err = s.fetch(s.offset, p[:n])
		return err
	})
	s.offset += int64(got)
	if err != nil {
		return got, err
	}
	return got, nil
}

// fetch requests bytes [start, start+len(buf)) and copies them into buf.
func (s *HTTPSource) fetch(start int64, buf []byte) (int, error) {
	end := start + int64(len(buf)) - 1
	byteRange := fmt.Sprintf("bytes=%d-%d", start, end)

	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", s.url)
	}
	req.Header.Set("Range", byteRange)
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept-Encoding", "identity")

	s.opts.Hooks.OnRequest(s.ctx, http.MethodGet, s.url, byteRange)
	began := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.opts.Hooks.OnError(s.ctx, http.MethodGet, s.url, err)
		return 0, transportError(s.ctx, err, s.url)
	}
	defer resp.Body.Close()

	var bodyStart, bodyEnd int64
	switch resp.StatusCode {
	case http.StatusPartialContent:
		bodyStart, bodyEnd, err = parseContentRange(resp.Header.Get("Content-Range"))
		if err != nil {
			s.opts.Hooks.OnResponse(s.ctx, http.MethodGet, s.url, resp.StatusCode, 0, time.Since(began))
			return 0, errors.Wrap(errors.ErrCodeRangeUnsupported, err, "%s: bad Content-Range", s.url)
		}
	case http.StatusOK:
		// The server ignored Range. Reading on to a later offset would pull
		// the whole archive through this request.
		if start > 0 {
			s.opts.Hooks.OnResponse(s.ctx, http.MethodGet, s.url, resp.StatusCode, 0, time.Since(began))
			return 0, errors.New(errors.ErrCodeRangeUnsupported,
				"%s: server ignored %s and sent the whole object", s.url, byteRange)
		}
		bodyStart, bodyEnd = 0, s.size-1
	default:
		s.opts.Hooks.OnResponse(s.ctx, http.MethodGet, s.url, resp.StatusCode, 0, time.Since(began))
		return 0, errors.Wrap(errors.ErrCodeIndexHTTPError,
			&errors.HTTPStatusError{StatusCode: resp.StatusCode, URL: s.url}, "range %s", byteRange)
	}
	if bodyStart > start || bodyEnd < start {
		s.opts.Hooks.OnResponse(s.ctx, http.MethodGet, s.url, resp.StatusCode, 0, time.Since(began))
		return 0, errors.New(errors.ErrCodeRangeUnsupported,
			"%s: asked for %s, server sent bytes %d-%d", s.url, byteRange, bodyStart, bodyEnd)
	}

	want := int(min(int64(len(buf)), bodyEnd-start+1))
	skipped, err := io.CopyN(io.Discard, resp.Body, start-bodyStart)
	if err == nil {
		var n int
		n, err = io.ReadFull(resp.Body, buf[:want])
		s.opts.Hooks.OnResponse(s.ctx, http.MethodGet, s.url, resp.StatusCode, skipped+int64(n), time.Since(began))
		if err == nil {
			return n, nil
		}
	} else {
		s.opts.Hooks.OnResponse(s.ctx, http.MethodGet, s.url, resp.StatusCode, skipped, time.Since(began))
	}
	// A body cut short mid-transfer is a transport failure; ask again.
	return 0, transportError(s.ctx, err, s.url)
}

// Seek sets the offset for the next Read. Seeking never issues a request.
func (s *HTTPSource) Seek(offset int64, whence int) (int64, error) {
	abs, err := resolveSeek(s.offset, s.size, offset, whence)
	if err != nil {
		return 0, err
	}
	s.offset = abs
	return abs, nil
}

// Size returns the Content-Length reported by the probe.
func (s *HTTPSource) Size() int64 { return s.size }

// Close is a no-op; connections belong to the shared client's pool.
func (s *HTTPSource) Close() error { return nil }

// Ensure HTTPSource implements Source.
var _ Source = (*HTTPSource)(nil)

// transportError classifies a client failure. Cancellation is returned
// untouched so callers can tell an abort apart from a network fault.
func transportError(ctx context.Context, err error, url string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeIndexUnavailable, err, "request %s", url)}
}

func acceptsByteRanges(h http.Header) bool {
	for _, v := range h.Values("Accept-Ranges") {
		for _, unit := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(unit), "bytes") {
				return true
			}
		}
	}
	return false
}

// parseContentRange parses "bytes start-end/total" (total may be "*").
func parseContentRange(v string) (start, end int64, err error) {
	byteRange, ok := strings.CutPrefix(strings.TrimSpace(v), "bytes ")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported unit in %q", v)
	}
	span, _, ok := strings.Cut(byteRange, "/")
	if !ok {
		return 0, 0, fmt.Errorf("missing length in %q", v)
	}
	first, last, ok := strings.Cut(span, "-")
	if !ok {
		return 0, 0, fmt.Errorf("missing range in %q", v)
	}
	if start, err = strconv.ParseInt(first, 10, 64); err != nil {
		return 0, 0, err
	}
	if end, err = strconv.ParseInt(last, 10, 64); err != nil {
		return 0, 0, err
	}
	if end < start {
		return 0, 0, fmt.Errorf("inverted range in %q", v)
	}
	return start, end, nil
}
