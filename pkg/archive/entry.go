package archive

import (
	"bufio"
	stderrors "errors"
	"hash"
	"hash/crc32"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"

	"github.com/matzehuels/wheelpeek/pkg/errors"
)

// maxChunk caps the buffer used to stream compressed bytes from the source.
// Entries up to this size are fetched with one read.
const maxChunk = 1 << 20

// Open returns a reader for the decompressed contents of e.
//
// It reads the 30-byte local header, skips the name and extra fields whose
// lengths that header declares, and then reads exactly e.CompressedSize
// bytes. The checksum and length are verified when the reader hits EOF.
func (r *Reader) Open(e Entry) (io.ReadCloser, error) {
	if e.Method != Store && e.Method != Deflate {
		return nil, errors.New(errors.ErrCodeUnsupportedCompression,
			"%s: compression method %d", e.Name, e.Method)
	}

	header := make([]byte, localHeaderLen)
	if err := readAt(r.src, header, e.HeaderOffset); err != nil {
		return nil, err
	}
	b := readBuf(header)
	if sig := b.uint32(); sig != localHeaderSig {
		return nil, errors.New(errors.ErrCodeCorruptDirectory,
			"%s: bad local header signature %#x at %d", e.Name, sig, e.HeaderOffset)
	}
	b.skip(22) // versions, flags, method, times, crc and sizes
	nameLen := int64(b.uint16())
	extraLen := int64(b.uint16())

	dataOffset := e.HeaderOffset + localHeaderLen + nameLen + extraLen
	if e.CompressedSize > r.src.Size()-dataOffset {
		return nil, errors.New(errors.ErrCodeCorruptDirectory,
			"%s: %d compressed bytes at %d exceed archive size", e.Name, e.CompressedSize, dataOffset)
	}
	if _, err := r.src.Seek(dataOffset, io.SeekStart); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptDirectory, err, "%s: seek to data", e.Name)
	}

	chunk := int(min(max(e.CompressedSize, 16), maxChunk))
	body := bufio.NewReaderSize(io.LimitReader(r.src, e.CompressedSize), chunk)

	var rc io.ReadCloser
	if e.Method == Deflate {
		rc = flate.NewReader(body)
	} else {
		rc = io.NopCloser(body)
	}
	return &checksumReader{rc: rc, entry: e, hash: crc32.NewIEEE()}, nil
}

// ReadText reads e fully and returns its contents as a string.
// Contents that are not valid UTF-8 fail with INVALID_TEXT.
func (r *Reader) ReadText(e Entry) (string, error) {
	rc, err := r.Open(e)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", errors.New(errors.ErrCodeInvalidText, "%s is not valid UTF-8", e.Name)
	}
	return string(data), nil
}

// SplitLines splits text on "\n" and drops a single trailing empty segment,
// so "a\nb\n" and "a\nb" both yield [a b]. Empty text yields an empty
// non-nil slice. Carriage returns and blank lines are kept as-is.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// checksumReader verifies the CRC-32 and size of an entry at EOF.
type checksumReader struct {
	rc    io.ReadCloser
	entry Entry
	hash  hash.Hash32
	n     int64
	err   error
}

func (c *checksumReader) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.rc.Read(p)
	c.hash.Write(p[:n])
	c.n += int64(n)
	if c.n > c.entry.UncompressedSize {
		err = errors.New(errors.ErrCodeCorruptDirectory,
			"%s: more than %d bytes decompressed", c.entry.Name, c.entry.UncompressedSize)
	}
	switch {
	case err == nil:
	case err == io.EOF:
		if c.n != c.entry.UncompressedSize {
			err = errors.New(errors.ErrCodeCorruptDirectory,
				"%s: decompressed %d bytes, directory says %d", c.entry.Name, c.n, c.entry.UncompressedSize)
		} else if sum := c.hash.Sum32(); sum != c.entry.CRC32 {
			err = errors.New(errors.ErrCodeCorruptDirectory,
				"%s: checksum %08x, directory says %08x", c.entry.Name, sum, c.entry.CRC32)
		}
	default:
		err = classifyDataError(c.entry.Name, err)
	}
	c.err = err
	return n, err
}

func (c *checksumReader) Close() error { return c.rc.Close() }

// classifyDataError maps decoder failures and truncated data onto
// CORRUPT_DIRECTORY while passing source errors (network, cancellation)
// through unchanged.
func classifyDataError(name string, err error) error {
	var corrupt flate.CorruptInputError
	switch {
	case stderrors.As(err, &corrupt), err == io.ErrUnexpectedEOF:
		return errors.Wrap(errors.ErrCodeCorruptDirectory, err, "%s: bad compressed data", name)
	}
	var internal flate.InternalError
	if stderrors.As(err, &internal) {
		return errors.Wrap(errors.ErrCodeCorruptDirectory, err, "%s: bad compressed data", name)
	}
	return err
}
