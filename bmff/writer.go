package bmff

import "github.com/google/uuid"

// maxDepth limits the writer nesting stack.
const maxDepth = 16

// writerFrame tracks the start offset of a box for size backpatching.
type writerFrame struct {
	offset int
}

// Writer encodes fragment boxes into a growing byte buffer.
type Writer struct {
	buf   []byte
	stack [maxDepth]writerFrame
	depth int
}

// NewWriter creates a Writer that appends to buf[:0].
func NewWriter(buf []byte) Writer {
	return Writer{buf: buf[:0]}
}

// Bytes returns the written data.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Write appends raw bytes. Implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Reset discards everything written so far.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.depth = 0
}

func (w *Writer) putUint32(v uint32) {
	w.buf = be.AppendUint32(w.buf, v)
}

func (w *Writer) putUint64(v uint64) {
	w.buf = be.AppendUint64(w.buf, v)
}

func (w *Writer) putInt32(v int32) {
	w.putUint32(uint32(v))
}

func (w *Writer) putBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

// StartBox begins a new box. Write content, then call EndBox.
func (w *Writer) StartBox(t BoxType) {
	w.stack[w.depth] = writerFrame{offset: len(w.buf)}
	w.depth++
	w.putUint32(0) // placeholder size
	w.putBytes(t[:])
}

// StartFullBox begins a new full box with version and flags.
func (w *Writer) StartFullBox(t BoxType, version uint8, flags uint32) {
	w.StartBox(t)
	w.putUint32((uint32(version) << 24) | (flags & 0x00ffffff))
}

// StartUUIDBox begins a uuid box carrying the given extended type.
func (w *Writer) StartUUIDBox(userType uuid.UUID) {
	w.StartBox(TypeUUID)
	w.putBytes(userType[:])
}

// EndBox finishes the current box by backpatching its size.
func (w *Writer) EndBox() {
	w.depth--
	f := w.stack[w.depth]
	be.PutUint32(w.buf[f.offset:], uint32(len(w.buf)-f.offset))
}

// WriteStyp writes a segment type box.
func (w *Writer) WriteStyp(brand [4]byte, brandVersion uint32, compat [][4]byte) {
	w.StartBox(TypeStyp)
	w.putBytes(brand[:])
	w.putUint32(brandVersion)
	for _, c := range compat {
		w.putBytes(c[:])
	}
	w.EndBox()
}

// WriteMfhd writes a complete mfhd box.
func (w *Writer) WriteMfhd(sequenceNumber uint32) {
	w.StartFullBox(TypeMfhd, 0, 0)
	w.putUint32(sequenceNumber)
	w.EndBox()
}

// TfhdFields holds the optional tfhd fields. Each one is written only when
// its presence flag is set.
type TfhdFields struct {
	BaseDataOffset         uint64
	SampleDescriptionIndex uint32
	DefaultSampleDuration  uint32
	DefaultSampleSize      uint32
	DefaultSampleFlags     uint32
}

// WriteTfhd writes a complete tfhd box.
func (w *Writer) WriteTfhd(flags uint32, trackID uint32, f TfhdFields) {
	w.StartFullBox(TypeTfhd, 0, flags)
	w.putUint32(trackID)
	if flags&TfhdBaseDataOffsetPresent != 0 {
		w.putUint64(f.BaseDataOffset)
	}
	if flags&TfhdSampleDescriptionIndexPresent != 0 {
		w.putUint32(f.SampleDescriptionIndex)
	}
	if flags&TfhdDefaultSampleDurationPresent != 0 {
		w.putUint32(f.DefaultSampleDuration)
	}
	if flags&TfhdDefaultSampleSizePresent != 0 {
		w.putUint32(f.DefaultSampleSize)
	}
	if flags&TfhdDefaultSampleFlagsPresent != 0 {
		w.putUint32(f.DefaultSampleFlags)
	}
	w.EndBox()
}

// WriteTfdt writes a complete tfdt box.
func (w *Writer) WriteTfdt(baseMediaDecodeTime uint64) {
	if baseMediaDecodeTime > uint32Max {
		w.StartFullBox(TypeTfdt, 1, 0)
		w.putUint64(baseMediaDecodeTime)
	} else {
		w.StartFullBox(TypeTfdt, 0, 0)
		w.putUint32(uint32(baseMediaDecodeTime))
	}
	w.EndBox()
}

// TrunEntry is a track run sample entry.
type TrunEntry struct {
	Duration              uint32
	Size                  uint32
	Flags                 uint32
	CompositionTimeOffset int32
}

// WriteTrun writes a complete trun box.
func (w *Writer) WriteTrun(flags uint32, dataOffset int32, entries []TrunEntry) {
	w.StartFullBox(TypeTrun, 0, flags)
	w.putUint32(uint32(len(entries)))
	if flags&TrunDataOffsetPresent != 0 {
		w.putInt32(dataOffset)
	}
	if flags&TrunFirstSampleFlagsPresent != 0 {
		var first uint32
		if len(entries) > 0 {
			first = entries[0].Flags
		}
		w.putUint32(first)
	}
	for _, e := range entries {
		if flags&TrunSampleDurationPresent != 0 {
			w.putUint32(e.Duration)
		}
		if flags&TrunSampleSizePresent != 0 {
			w.putUint32(e.Size)
		}
		if flags&TrunSampleFlagsPresent != 0 {
			w.putUint32(e.Flags)
		}
		if flags&TrunSampleCompositionTimeOffsetPresent != 0 {
			w.putInt32(e.CompositionTimeOffset)
		}
	}
	w.EndBox()
}

// WriteMdat writes an mdat box around payload.
func (w *Writer) WriteMdat(payload []byte) {
	w.StartBox(TypeMdat)
	w.putBytes(payload)
	w.EndBox()
}

// WriteUUID writes a complete uuid box with an opaque payload.
func (w *Writer) WriteUUID(userType uuid.UUID, version uint8, flags uint32, payload []byte) {
	w.StartUUIDBox(userType)
	w.putUint32((uint32(version) << 24) | (flags & 0x00ffffff))
	w.putBytes(payload)
	w.EndBox()
}

// WriteFree writes a free box of n zero bytes.
func (w *Writer) WriteFree(n int) {
	w.StartBox(TypeFree)
	w.putBytes(make([]byte, n))
	w.EndBox()
}
