package archive

import "encoding/binary"

// Record signatures and fixed sizes from the zip application note.
const (
	localHeaderSig     = 0x04034b50
	directoryHeaderSig = 0x02014b50
	directoryEndSig    = 0x06054b50
	zip64LocatorSig    = 0x07064b50
	zip64EndSig        = 0x06064b50

	localHeaderLen     = 30
	directoryHeaderLen = 46
	directoryEndLen    = 22
	zip64LocatorLen    = 20
	zip64EndLen        = 56

	maxCommentLen = 0xffff

	zip64ExtraID = 0x0001
)

// Compression methods.
const (
	Store   uint16 = 0
	Deflate uint16 = 8
)

// readBuf consumes little-endian fields from the front of a byte slice.
// Callers check the length before reading.
type readBuf []byte

func (b *readBuf) uint16() uint16 {
	v := binary.LittleEndian.Uint16(*b)
	*b = (*b)[2:]
	return v
}

func (b *readBuf) uint32() uint32 {
	v := binary.LittleEndian.Uint32(*b)
	*b = (*b)[4:]
	return v
}

func (b *readBuf) uint64() uint64 {
	v := binary.LittleEndian.Uint64(*b)
	*b = (*b)[8:]
	return v
}

func (b *readBuf) skip(n int) { *b = (*b)[n:] }

func (b *readBuf) sub(n int) readBuf {
	s := (*b)[:n]
	*b = (*b)[n:]
	return s
}

// MethodName returns a short label for a compression method.
func MethodName(method uint16) string {
	switch method {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	default:
		return "unknown"
	}
}
