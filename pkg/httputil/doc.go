// Package httputil provides HTTP utilities shared by the index client and the
// ranged archive reader.
//
// # Overview
//
//   - [NewClient]: The process-wide pooled HTTP client
//   - [Retry]: Automatic retry with exponential backoff
//
// # Retry
//
// [Retry] re-runs an operation only for failures wrapped in
// [RetryableError]. Callers decide what is transient: the index client marks
// transport errors and 5xx responses, the range reader marks transport
// errors only.
//
//	err := httputil.Retry(ctx, 3, 200*time.Millisecond, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # Configuration
//
// Default settings:
//
//   - Request timeout: 30 seconds (0 disables)
//   - Attempts: 3
//   - Base backoff: 200 milliseconds, doubling per attempt
package httputil
