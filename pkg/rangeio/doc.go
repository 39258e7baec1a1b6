// Package rangeio provides seekable byte access to archives regardless of
// where they live.
//
// # Sources
//
// A [Source] is an io.ReadSeekCloser that also knows its total size. Two
// backends implement it:
//
//   - [FileSource]: a local file opened through an afero.Fs
//   - [HTTPSource]: a remote object read with HTTP range requests
//
// Code that parses archives depends only on [Source], never on a backend.
//
// # Range Requests
//
// [OpenHTTP] issues a HEAD probe before any data is requested. The probe must
// report a Content-Length and "Accept-Ranges: bytes"; otherwise it fails with
// RANGE_UNSUPPORTED instead of silently downloading the whole object.
//
// Each Read then becomes exactly one "Range: bytes=start-end" GET for the
// requested span. Servers may answer with the exact span or a larger one that
// starts earlier; leading bytes are discarded. Transport errors are retried
// with the same range, HTTP error statuses are not.
//
//	src, err := rangeio.OpenHTTP(ctx, client, wheelURL, rangeio.HTTPOptions{})
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	src.Seek(-22, io.SeekEnd)
//	io.ReadFull(src, buf[:22]) // one 22-byte range request
package rangeio
