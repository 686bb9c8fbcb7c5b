package bmff

import (
	"fmt"

	"github.com/google/uuid"
)

// headerSize is the size of a compact box header: 32-bit size + 32-bit type.
const headerSize = 8

// userTypeSize is the size of the extended type that follows a uuid box header.
const userTypeSize = 16

// Buffer is a read-only, bounds-checked view over raw fragment bytes.
// Every accessor reports ErrTruncated instead of reading past the end.
type Buffer struct {
	buf []byte
}

// NewBuffer wraps buf. The bytes are borrowed, never modified.
func NewBuffer(buf []byte) Buffer {
	return Buffer{buf: buf}
}

// Len returns the number of bytes in the buffer.
func (b Buffer) Len() int { return len(b.buf) }

// Uint32At reads a big-endian uint32 at off.
func (b Buffer) Uint32At(off int) (uint32, error) {
	if off < 0 || len(b.buf)-off < 4 {
		return 0, fmt.Errorf("%w: uint32 at %d, have %d bytes", ErrTruncated, off, len(b.buf))
	}
	return be.Uint32(b.buf[off:]), nil
}

// Bytes returns the n bytes starting at off.
// Note that, the returned slice points into the original buffer.
func (b Buffer) Bytes(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || len(b.buf)-off < n {
		return nil, fmt.Errorf("%w: %d bytes at %d, have %d bytes", ErrTruncated, n, off, len(b.buf))
	}
	return b.buf[off : off+n], nil
}

// Header describes one box header.
type Header struct {
	Type     BoxType
	Size     uint32    // declared size, including the header
	Offset   int       // position of the size field
	Content  int       // first byte after the header
	UserType uuid.UUID // extended type, only for uuid boxes
}

// End returns the position just past the box according to its declared size.
func (h Header) End() int { return h.Offset + int(h.Size) }

// Header reads the box header starting at off.
func (b Buffer) Header(off int) (Header, error) {
	size, err := b.Uint32At(off)
	if err != nil {
		return Header{}, err
	}
	code, err := b.Uint32At(off + 4)
	if err != nil {
		return Header{}, err
	}
	h := Header{
		Type:    CodeOf(code),
		Size:    size,
		Offset:  off,
		Content: off + headerSize,
	}
	if h.Type == TypeUUID {
		ext, err := b.Bytes(h.Content, userTypeSize)
		if err != nil {
			return Header{}, err
		}
		if h.UserType, err = uuid.FromBytes(ext); err != nil {
			return Header{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		h.Content += userTypeSize
	}
	return h, nil
}

// Uint64At reads a big-endian uint64 at off.
func (b Buffer) Uint64At(off int) (uint64, error) {
	if off < 0 || len(b.buf)-off < 8 {
		return 0, fmt.Errorf("%w: uint64 at %d, have %d bytes", ErrTruncated, off, len(b.buf))
	}
	return be.Uint64(b.buf[off:]), nil
}
