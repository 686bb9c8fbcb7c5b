// Package bmff locates boxes inside ISO Base Media File Format (ISOBMFF) fragments.
//
// It is not a general ISOBMFF parser. It knows just enough of the box layout
// to walk a movie fragment (moof → traf → tfhd/trun) with bounds-checked reads,
// to pick top-level boxes out of a stream, and to write small fragments.
package bmff

import (
	"encoding/binary"
	"errors"
	"math"
)

var be = binary.BigEndian

const uint32Max = math.MaxUint32

var (
	// ErrBoxNotFound is returned when the requested box type does not occur
	// before the end of the buffer.
	ErrBoxNotFound = errors.New("bmff: box not found")

	// ErrTruncated is returned when a read would go past the end of the buffer.
	ErrTruncated = errors.New("bmff: truncated buffer")

	// ErrMalformed is returned for box headers whose declared size cannot
	// advance a scan.
	ErrMalformed = errors.New("bmff: malformed box")
)

// BoxType is a 4-byte box type identifier.
type BoxType [4]byte

func (t BoxType) String() string {
	return string(t[:])
}

// Code returns the type packed as a big-endian uint32, the way it appears on the wire.
func (t BoxType) Code() uint32 {
	return be.Uint32(t[:])
}

// CodeOf unpacks a big-endian uint32 type code.
func CodeOf(code uint32) BoxType {
	var t BoxType
	be.PutUint32(t[:], code)
	return t
}

// Known box types.
var (
	TypeStyp = BoxType{'s', 't', 'y', 'p'} // Segment type box
	TypeSidx = BoxType{'s', 'i', 'd', 'x'} // Segment index box
	TypeMoof = BoxType{'m', 'o', 'o', 'f'}
	TypeMfhd = BoxType{'m', 'f', 'h', 'd'}
	TypeTraf = BoxType{'t', 'r', 'a', 'f'}
	TypeTfhd = BoxType{'t', 'f', 'h', 'd'}
	TypeTfdt = BoxType{'t', 'f', 'd', 't'}
	TypeTrun = BoxType{'t', 'r', 'u', 'n'}
	TypeMdat = BoxType{'m', 'd', 'a', 't'}
	TypeFree = BoxType{'f', 'r', 'e', 'e'}
	// Extended type box; a 16-byte user type follows the compact header.
	TypeUUID = BoxType{'u', 'u', 'i', 'd'}
)

// Tfhd flags (Track Fragment Header Box).
const (
	TfhdBaseDataOffsetPresent         = 0x000001
	TfhdSampleDescriptionIndexPresent = 0x000002
	TfhdDefaultSampleDurationPresent  = 0x000008
	TfhdDefaultSampleSizePresent      = 0x000010
	TfhdDefaultSampleFlagsPresent     = 0x000020
	TfhdDurationIsEmpty               = 0x010000
	TfhdDefaultBaseIsMoof             = 0x020000
)

// Trun flags.
const (
	TrunDataOffsetPresent                  = 0x000001
	TrunFirstSampleFlagsPresent            = 0x000004
	TrunSampleDurationPresent              = 0x000100
	TrunSampleSizePresent                  = 0x000200
	TrunSampleFlagsPresent                 = 0x000400
	TrunSampleCompositionTimeOffsetPresent = 0x000800
)

// IsFullBox returns true if the box type has version and flags fields.
func IsFullBox(t BoxType) bool {
	switch t {
	case TypeMfhd, TypeTfhd, TypeTfdt, TypeTrun, TypeSidx:
		return true
	}
	return false
}

// IsContainerBox returns true if the box type is a container that holds child boxes.
func IsContainerBox(t BoxType) bool {
	switch t {
	case TypeMoof, TypeTraf:
		return true
	}
	return false
}
