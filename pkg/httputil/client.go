package httputil

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds each individual HTTP request.
const DefaultTimeout = 30 * time.Second

// NewClient creates the pooled HTTP client shared by every component that
// talks to the network. A timeout of 0 means no per-request limit.
//
// Compression is disabled on the transport so Content-Length and byte ranges
// always describe the stored object rather than an encoded rendition.
func NewClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true
	transport.MaxIdleConnsPerHost = 16
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
