package archive

import (
	"bytes"
	stderrors "errors"
	"io"
	"strings"

	"github.com/matzehuels/wheelpeek/pkg/errors"
	"github.com/matzehuels/wheelpeek/pkg/rangeio"
)

// Entry describes one central directory record.
type Entry struct {
	Name             string
	CompressedSize   int64
	UncompressedSize int64
	Method           uint16
	HeaderOffset     int64
	CRC32            uint32
}

// Reader gives access to the entries of a zip archive.
// The source stays owned by the caller; a Reader is not safe for concurrent
// use because it moves the source offset.
type Reader struct {
	src       rangeio.Source
	entries   []Entry
	dirOffset int64
}

// directoryEnd holds the fields of the (zip64) end-of-central-directory
// record that locate the directory.
type directoryEnd struct {
	count  uint64
	size   uint64
	offset uint64
}

// NewReader locates and parses the central directory of src.
// Entry data is not read.
func NewReader(src rangeio.Source) (*Reader, error) {
	end, endOffset, err := findDirectoryEnd(src)
	if err != nil {
		return nil, err
	}
	if end.needsZip64() {
		if end, err = readZip64End(src, endOffset, end); err != nil {
			return nil, err
		}
	}

	size := src.Size()
	if end.offset > uint64(size) || end.size > uint64(size)-end.offset {
		return nil, errors.New(errors.ErrCodeCorruptDirectory,
			"central directory at %d+%d exceeds archive size %d", end.offset, end.size, size)
	}
	if end.count > end.size/directoryHeaderLen {
		return nil, errors.New(errors.ErrCodeCorruptDirectory,
			"%d entries cannot fit in %d directory bytes", end.count, end.size)
	}

	dir := make([]byte, end.size)
	if err := readAt(src, dir, int64(end.offset)); err != nil {
		return nil, err
	}
	entries, err := parseDirectory(dir, int(end.count))
	if err != nil {
		return nil, err
	}
	return &Reader{src: src, entries: entries, dirOffset: int64(end.offset)}, nil
}

// Entries returns the directory records in directory order.
func (r *Reader) Entries() []Entry { return r.entries }

// DirectoryOffset returns where the central directory starts in the source.
// Everything from there to the end is what NewReader transferred.
func (r *Reader) DirectoryOffset() int64 { return r.dirOffset }

// Find returns the first entry, in directory order, whose name satisfies match.
func (r *Reader) Find(match func(name string) bool) (Entry, bool) {
	for _, e := range r.entries {
		if match(e.Name) {
			return e, true
		}
	}
	return Entry{}, false
}

// HasSuffix returns a Find predicate matching names that end in suffix.
func HasSuffix(suffix string) func(string) bool {
	return func(name string) bool { return strings.HasSuffix(name, suffix) }
}

// findDirectoryEnd returns the end-of-central-directory record and its
// offset. An archive without a comment needs a single 22-byte read.
func findDirectoryEnd(src rangeio.Source) (directoryEnd, int64, error) {
	size := src.Size()
	if size < directoryEndLen {
		return directoryEnd{}, 0, errors.New(errors.ErrCodeNotAnArchive,
			"%d bytes is too short for a zip archive", size)
	}

	tail := make([]byte, directoryEndLen)
	if err := readAt(src, tail, size-directoryEndLen); err != nil {
		return directoryEnd{}, 0, err
	}
	if end, ok := parseDirectoryEnd(tail); ok && commentLen(tail) == 0 {
		return end, size - directoryEndLen, nil
	}

	window := min(size, directoryEndLen+maxCommentLen)
	buf := make([]byte, window)
	if err := readAt(src, buf, size-window); err != nil {
		return directoryEnd{}, 0, err
	}
	for i := len(buf) - directoryEndLen; i >= 0; i-- {
		if !bytes.HasPrefix(buf[i:], []byte("PK\x05\x06")) {
			continue
		}
		// The comment must run exactly to the end of the file.
		if i+directoryEndLen+commentLen(buf[i:]) != len(buf) {
			continue
		}
		if end, ok := parseDirectoryEnd(buf[i : i+directoryEndLen]); ok {
			return end, size - window + int64(i), nil
		}
	}
	return directoryEnd{}, 0, errors.New(errors.ErrCodeNotAnArchive,
		"no end of central directory record found")
}

func commentLen(rec []byte) int {
	return int(rec[20]) | int(rec[21])<<8
}

func parseDirectoryEnd(rec []byte) (directoryEnd, bool) {
	b := readBuf(rec)
	if b.uint32() != directoryEndSig {
		return directoryEnd{}, false
	}
	b.skip(6) // disk numbers, entries on this disk
	count := b.uint16()
	size := b.uint32()
	offset := b.uint32()
	return directoryEnd{count: uint64(count), size: uint64(size), offset: uint64(offset)}, true
}

func (d directoryEnd) needsZip64() bool {
	return d.count == 0xffff || d.size == 0xffffffff || d.offset == 0xffffffff
}

// readZip64End follows the zip64 locator that precedes the classic record.
// Archives with saturated fields but no locator keep the classic values.
func readZip64End(src rangeio.Source, endOffset int64, classic directoryEnd) (directoryEnd, error) {
	locOffset := endOffset - zip64LocatorLen
	if locOffset < 0 {
		return classic, nil
	}
	loc := make([]byte, zip64LocatorLen)
	if err := readAt(src, loc, locOffset); err != nil {
		return directoryEnd{}, err
	}
	b := readBuf(loc)
	if b.uint32() != zip64LocatorSig {
		return classic, nil
	}
	b.skip(4) // disk with the zip64 end record
	recOffset := b.uint64()
	if recOffset > uint64(locOffset) || uint64(locOffset)-recOffset < zip64EndLen {
		return directoryEnd{}, errors.New(errors.ErrCodeCorruptDirectory,
			"zip64 end record offset %d out of range", recOffset)
	}

	rec := make([]byte, zip64EndLen)
	if err := readAt(src, rec, int64(recOffset)); err != nil {
		return directoryEnd{}, err
	}
	b = readBuf(rec)
	if b.uint32() != zip64EndSig {
		return directoryEnd{}, errors.New(errors.ErrCodeCorruptDirectory, "bad zip64 end record signature")
	}
	b.skip(8 + 2 + 2 + 4 + 4 + 8) // record size, versions, disks, entries on this disk
	return directoryEnd{count: b.uint64(), size: b.uint64(), offset: b.uint64()}, nil
}

// parseDirectory decodes count consecutive directory headers from dir.
func parseDirectory(dir []byte, count int) ([]Entry, error) {
	entries := make([]Entry, 0, count)
	b := readBuf(dir)
	for i := range count {
		if len(b) < directoryHeaderLen {
			return nil, errors.New(errors.ErrCodeCorruptDirectory, "entry %d: truncated header", i)
		}
		if sig := b.uint32(); sig != directoryHeaderSig {
			return nil, errors.New(errors.ErrCodeCorruptDirectory, "entry %d: bad signature %#x", i, sig)
		}
		b.skip(2 + 2 + 2) // versions, flags
		method := b.uint16()
		b.skip(2 + 2) // modification time and date
		crc := b.uint32()
		compSize := b.uint32()
		size := b.uint32()
		nameLen := int(b.uint16())
		extraLen := int(b.uint16())
		fileCommentLen := int(b.uint16())
		b.skip(2 + 2 + 4) // disk start, internal and external attributes
		offset := b.uint32()

		if len(b) < nameLen+extraLen+fileCommentLen {
			return nil, errors.New(errors.ErrCodeCorruptDirectory, "entry %d: variable fields exceed directory", i)
		}
		e := Entry{
			Name:             string(b.sub(nameLen)),
			CompressedSize:   int64(compSize),
			UncompressedSize: int64(size),
			Method:           method,
			HeaderOffset:     int64(offset),
			CRC32:            crc,
		}
		if err := applyZip64Extra(&e, b.sub(extraLen), size, compSize, offset); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCorruptDirectory, err, "entry %d (%s)", i, e.Name)
		}
		b.skip(fileCommentLen)
		entries = append(entries, e)
	}
	return entries, nil
}

var errShortZip64Extra = stderrors.New("zip64 extra field too short")

// applyZip64Extra replaces saturated 32-bit fields with their 64-bit values.
func applyZip64Extra(e *Entry, extra readBuf, size, compSize, offset uint32) error {
	for len(extra) >= 4 {
		id := extra.uint16()
		n := int(extra.uint16())
		if len(extra) < n {
			return stderrors.New("extra field exceeds its record")
		}
		field := extra.sub(n)
		if id != zip64ExtraID {
			continue
		}
		for _, f := range []struct {
			saturated bool
			dst       *int64
		}{
			{size == 0xffffffff, &e.UncompressedSize},
			{compSize == 0xffffffff, &e.CompressedSize},
			{offset == 0xffffffff, &e.HeaderOffset},
		} {
			if !f.saturated {
				continue
			}
			if len(field) < 8 {
				return errShortZip64Extra
			}
			v := field.uint64()
			if v > 1<<63-1 {
				return stderrors.New("zip64 value overflows")
			}
			*f.dst = int64(v)
		}
	}
	return nil
}

// readAt fills buf from offset in a single read sequence. A source that ends
// early means the records point past the data.
func readAt(src rangeio.Source, buf []byte, offset int64) error {
	if _, err := src.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(errors.ErrCodeCorruptDirectory, err, "seek to %d", offset)
	}
	if _, err := io.ReadFull(src, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return errors.Wrap(errors.ErrCodeCorruptDirectory, err, "read %d bytes at %d", len(buf), offset)
		}
		return err
	}
	return nil
}
