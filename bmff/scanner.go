package bmff

import (
	"errors"
	"fmt"
	"io"
)

// ScanEntry represents a top-level box discovered by the Scanner.
type ScanEntry struct {
	Type       BoxType
	Size       int64 // total box size including header
	Offset     int64 // byte offset from start of stream
	HeaderSize int   // header size (8 or 16 bytes)
}

// DataSize returns the size of the box data (excluding the header).
func (e ScanEntry) DataSize() int64 {
	return e.Size - int64(e.HeaderSize)
}

// Scanner reads top-level box headers from an io.ReadSeeker without
// loading box contents into memory. A media segment usually starts with
// styp and sidx boxes; the scanner lets callers skip those and load only
// the moof they need.
//
// A box whose declared size runs past the end of the stream stops the scan
// with ErrTruncated, so an entry's Size is always safe to allocate.
//
//	sc := bmff.NewScanner(f)
//	moof, err := sc.Find(bmff.TypeMoof)
//	if err != nil { ... }
//	buf := make([]byte, moof.Size)
//	err = sc.ReadBox(buf)
type Scanner struct {
	rs    io.ReadSeeker
	hdr   [16]byte // reusable header buffer
	entry ScanEntry
	err   error
	pos   int64 // current position in stream
	end   int64 // stream length, -1 until measured
}

// NewScanner creates a Scanner that reads box headers from rs.
func NewScanner(rs io.ReadSeeker) Scanner {
	return Scanner{rs: rs, end: -1}
}

// Next advances to the next top-level box. Returns false when there
// are no more boxes or an error occurs. Check Err() after the loop.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	_, err := io.ReadFull(s.rs, s.hdr[:8])
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			s.err = fmt.Errorf("%w: box header at %d", ErrTruncated, s.pos)
		} else if err != io.EOF {
			s.err = err
		}
		return false
	}

	boxStart := s.pos
	size := int64(be.Uint32(s.hdr[:4]))
	var t BoxType
	copy(t[:], s.hdr[4:8])

	headerSize := 8

	if size == 1 {
		// Extended 64-bit size
		if _, err = io.ReadFull(s.rs, s.hdr[8:16]); err != nil {
			s.err = fmt.Errorf("%w: extended size of %s at %d", ErrTruncated, t, boxStart)
			return false
		}
		size = int64(be.Uint64(s.hdr[8:16]))
		headerSize = 16
	}

	end, err := s.streamEnd(boxStart + int64(headerSize))
	if err != nil {
		s.err = err
		return false
	}

	if size == 0 {
		// Box extends to end of stream
		size = end - boxStart
	}

	if size < int64(headerSize) {
		s.err = fmt.Errorf("%w: %s box at %d declares size %d", ErrMalformed, t, boxStart, size)
		return false
	}
	if size > end-boxStart {
		s.err = fmt.Errorf("%w: %s box at %d declares size %d, stream ends at %d", ErrTruncated, t, boxStart, size, end)
		return false
	}

	s.entry = ScanEntry{
		Type:       t,
		Size:       size,
		Offset:     boxStart,
		HeaderSize: headerSize,
	}

	// Skip past this box's data to position for the next call
	if _, err := s.rs.Seek(boxStart+size, io.SeekStart); err != nil {
		s.err = err
		return false
	}
	s.pos = boxStart + size

	return true
}

// streamEnd returns the stream length, measuring it on first use and
// restoring the read position to cur.
func (s *Scanner) streamEnd(cur int64) (int64, error) {
	if s.end >= 0 {
		return s.end, nil
	}
	end, err := s.rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.rs.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	s.end = end
	return end, nil
}

// Find advances to the first top-level box of type t.
func (s *Scanner) Find(t BoxType) (ScanEntry, error) {
	for s.Next() {
		if s.entry.Type == t {
			return s.entry, nil
		}
	}
	if s.err != nil {
		return ScanEntry{}, s.err
	}
	return ScanEntry{}, fmt.Errorf("%w: no top-level %s", ErrBoxNotFound, t)
}

// Entry returns the current box entry. Only valid after Next returns true.
func (s *Scanner) Entry() ScanEntry {
	return s.entry
}

// Err returns the first non-EOF error encountered by the Scanner.
func (s *Scanner) Err() error {
	return s.err
}

// ReadBody reads the current box's data (excluding header) into buf.
// buf must be exactly DataSize() bytes.
func (s *Scanner) ReadBody(buf []byte) error {
	return s.readAt(s.entry.Offset+int64(s.entry.HeaderSize), buf)
}

// ReadBox reads the current box's full data (including header) into buf.
// buf must be exactly Size bytes.
func (s *Scanner) ReadBox(buf []byte) error {
	return s.readAt(s.entry.Offset, buf)
}

// readAt reads len(buf) bytes at off, then seeks back so that subsequent
// Next calls continue after the current box.
func (s *Scanner) readAt(off int64, buf []byte) error {
	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(s.rs, buf); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s box at %d", ErrTruncated, s.entry.Type, s.entry.Offset)
		}
		return err
	}
	_, err := s.rs.Seek(s.pos, io.SeekStart)
	return err
}
