package bmff

import "fmt"

// Locate finds the first box of type t at or after start and returns the
// offset of its content (8 bytes past the box start, 24 for uuid boxes).
//
// Boxes are walked as siblings by their declared sizes. Locate does not
// descend; to search inside a container call Locate again with the
// container's content offset. The walk is not bounded by the parent box,
// only by the end of the buffer.
//
// Running out of buffer before a match, including a match whose content
// would start at or past the end, is reported as ErrBoxNotFound. A uuid
// header cut short is ErrTruncated.
func (b Buffer) Locate(t BoxType, start int) (int, error) {
	pos := start
	for {
		if pos+headerSize >= b.Len() {
			return 0, fmt.Errorf("%w: %s from %d", ErrBoxNotFound, t, start)
		}
		h, err := b.Header(pos)
		if err != nil {
			return 0, fmt.Errorf("locating %s from %d: %w", t, start, err)
		}
		if h.Content >= b.Len() {
			return 0, fmt.Errorf("%w: %s from %d", ErrBoxNotFound, t, start)
		}
		if h.Type == t {
			return h.Content, nil
		}
		// The uuid extension is part of the declared size, so only Size moves pos.
		if h.Size < headerSize {
			return 0, fmt.Errorf("%w: %s box at %d declares size %d", ErrMalformed, h.Type, h.Offset, h.Size)
		}
		pos = h.End()
	}
}

// Locate finds box t in buf starting at start. See Buffer.Locate.
func Locate(buf []byte, t BoxType, start int) (int, error) {
	return NewBuffer(buf).Locate(t, start)
}

// LocatePath descends through the given box types, each searched from the
// content of the previous one, and returns the content offset of the last.
func (b Buffer) LocatePath(start int, path ...BoxType) (int, error) {
	pos := start
	for _, t := range path {
		var err error
		if pos, err = b.Locate(t, pos); err != nil {
			return 0, err
		}
	}
	return pos, nil
}
