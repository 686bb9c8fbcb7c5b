package bmff

import "fmt"

// FullBoxHeader splits the version/flags word of the full box whose content
// starts at off.
func (b Buffer) FullBoxHeader(off int) (version uint8, flags uint32, err error) {
	vf, err := b.Uint32At(off)
	if err != nil {
		return 0, 0, err
	}
	return uint8(vf >> 24), vf & 0x00ffffff, nil
}

// ReadMfhd returns the sequence number of the mfhd box whose content starts at off.
func (b Buffer) ReadMfhd(off int) (uint32, error) {
	return b.Uint32At(off + 4)
}

// Tfhd is a decoded track fragment header.
type Tfhd struct {
	Flags   uint32
	TrackID uint32
	TfhdFields
}

// ReadTfhd decodes the tfhd box whose content starts at off. Optional fields
// whose flag is clear are left zero.
func (b Buffer) ReadTfhd(off int) (Tfhd, error) {
	_, flags, err := b.FullBoxHeader(off)
	if err != nil {
		return Tfhd{}, err
	}
	h := Tfhd{Flags: flags}
	if h.TrackID, err = b.Uint32At(off + 4); err != nil {
		return Tfhd{}, err
	}
	pos := off + 8

	if flags&TfhdBaseDataOffsetPresent != 0 {
		if h.BaseDataOffset, err = b.Uint64At(pos); err != nil {
			return Tfhd{}, err
		}
		pos += 8
	}
	for _, f := range []struct {
		flag uint32
		dst  *uint32
	}{
		{TfhdSampleDescriptionIndexPresent, &h.SampleDescriptionIndex},
		{TfhdDefaultSampleDurationPresent, &h.DefaultSampleDuration},
		{TfhdDefaultSampleSizePresent, &h.DefaultSampleSize},
		{TfhdDefaultSampleFlagsPresent, &h.DefaultSampleFlags},
	} {
		if flags&f.flag == 0 {
			continue
		}
		if *f.dst, err = b.Uint32At(pos); err != nil {
			return Tfhd{}, err
		}
		pos += 4
	}
	return h, nil
}

// ReadTfdt returns the base media decode time of the tfdt box whose content
// starts at off.
func (b Buffer) ReadTfdt(off int) (uint64, error) {
	version, _, err := b.FullBoxHeader(off)
	if err != nil {
		return 0, err
	}
	if version == 1 {
		return b.Uint64At(off + 4)
	}
	v, err := b.Uint32At(off + 4)
	return uint64(v), err
}

// TrunIter iterates over the sample entries of a trun box.
type TrunIter struct {
	b                Buffer
	flags            uint32
	count            uint32
	index            uint32
	dataOffset       int32
	firstSampleFlags uint32
	stride           int
	pos              int
	err              error
}

// Trun returns an iterator over the trun box whose content starts at off.
func (b Buffer) Trun(off int) (TrunIter, error) {
	_, flags, err := b.FullBoxHeader(off)
	if err != nil {
		return TrunIter{}, err
	}
	it := TrunIter{b: b, flags: flags}
	if it.count, err = b.Uint32At(off + 4); err != nil {
		return TrunIter{}, err
	}
	pos := off + 8
	if flags&TrunDataOffsetPresent != 0 {
		v, err := b.Uint32At(pos)
		if err != nil {
			return TrunIter{}, err
		}
		it.dataOffset = int32(v)
		pos += 4
	}
	if flags&TrunFirstSampleFlagsPresent != 0 {
		if it.firstSampleFlags, err = b.Uint32At(pos); err != nil {
			return TrunIter{}, err
		}
		pos += 4
	}
	it.pos = pos

	for _, f := range []uint32{
		TrunSampleDurationPresent,
		TrunSampleSizePresent,
		TrunSampleFlagsPresent,
		TrunSampleCompositionTimeOffsetPresent,
	} {
		if flags&f != 0 {
			it.stride += 4
		}
	}
	return it, nil
}

// Flags returns the trun flags.
func (it *TrunIter) Flags() uint32 { return it.flags }

// Count returns the declared number of samples.
func (it *TrunIter) Count() uint32 { return it.count }

// DataOffset returns the trun data offset.
func (it *TrunIter) DataOffset() int32 { return it.dataOffset }

// FirstSampleFlags returns the first sample flags, if present.
func (it *TrunIter) FirstSampleFlags() uint32 { return it.firstSampleFlags }

// Next returns the next sample entry. It returns false when all entries have
// been read or the box ends early; check Err to tell the two apart.
func (it *TrunIter) Next() (TrunEntry, bool) {
	if it.err != nil || it.index >= it.count {
		return TrunEntry{}, false
	}
	raw, err := it.b.Bytes(it.pos, it.stride)
	if err != nil {
		it.err = fmt.Errorf("trun entry %d of %d: %w", it.index, it.count, err)
		return TrunEntry{}, false
	}

	var e TrunEntry
	p := 0
	if it.flags&TrunSampleDurationPresent != 0 {
		e.Duration = be.Uint32(raw[p:])
		p += 4
	}
	if it.flags&TrunSampleSizePresent != 0 {
		e.Size = be.Uint32(raw[p:])
		p += 4
	}
	if it.flags&TrunSampleFlagsPresent != 0 {
		e.Flags = be.Uint32(raw[p:])
		p += 4
	}
	if it.flags&TrunSampleCompositionTimeOffsetPresent != 0 {
		e.CompositionTimeOffset = int32(be.Uint32(raw[p:]))
	}
	it.pos += it.stride
	it.index++
	return e, true
}

// Err returns the error that stopped iteration early, if any.
func (it *TrunIter) Err() error { return it.err }
