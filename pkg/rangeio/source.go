package rangeio

import (
	"errors"
	"io"
)

// Source is random-access byte storage of known size.
// A Source is owned by a single reader and is not safe for concurrent use.
type Source interface {
	io.ReadSeekCloser
	// Size returns the total length in bytes.
	Size() int64
}

var errNegativeOffset = errors.New("rangeio: negative seek offset")

// resolveSeek computes the absolute offset for a Seek call.
func resolveSeek(cur, size, offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = cur + offset
	case io.SeekEnd:
		abs = size + offset
	default:
		return 0, errors.New("rangeio: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativeOffset
	}
	return abs, nil
}
