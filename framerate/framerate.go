// Package framerate derives a video frame rate from a movie fragment.
//
// Two strategies are tried in order. The track fragment header (tfhd) may
// carry a default sample duration, giving timescale / duration. Otherwise the
// first track run (trun) gives sample_count / fragment duration in seconds.
package framerate

import (
	"errors"
	"fmt"
	"math"

	"github.com/tetsuo/smpte/bmff"
)

// ErrUndetermined is returned when no strategy yields a positive frame rate.
// Box lookup and truncation failures are reported with it as well.
var ErrUndetermined = errors.New("framerate: undetermined")

// Source names the box a frame rate was derived from.
type Source int

const (
	SourceNone Source = iota
	SourceTfhd
	SourceTrun
)

func (s Source) String() string {
	switch s {
	case SourceTfhd:
		return "tfhd"
	case SourceTrun:
		return "trun"
	}
	return "none"
}

// Detection is the outcome of a successful extraction.
type Detection struct {
	FrameRate float64
	Source    Source
	TrackID   uint32
}

// Extract returns the frame rate of the fragment in buf. buf must start with
// the moof box; durationTicks is the nominal fragment duration expressed in
// timescale units.
func Extract(buf []byte, durationTicks uint64, timescale uint32) (float64, error) {
	d, err := Detect(buf, durationTicks, timescale)
	if err != nil {
		return 0, err
	}
	return d.FrameRate, nil
}

// Detect is like Extract but also reports where the value came from.
func Detect(buf []byte, durationTicks uint64, timescale uint32) (Detection, error) {
	b := bmff.NewBuffer(buf)

	moof, err := b.Locate(bmff.TypeMoof, 0)
	if err != nil {
		return Detection{}, undetermined(err)
	}
	traf, err := b.Locate(bmff.TypeTraf, moof)
	if err != nil {
		return Detection{}, undetermined(err)
	}
	tfhd, err := b.Locate(bmff.TypeTfhd, traf)
	if err != nil {
		return Detection{}, undetermined(err)
	}

	d := Detection{}
	d.TrackID, _ = b.Uint32At(tfhd + 4) // informational only

	rate, err := FromTfhd(b, tfhd, timescale)
	if err != nil {
		return Detection{}, undetermined(err)
	}
	if valid(rate) {
		d.FrameRate, d.Source = rate, SourceTfhd
		return d, nil
	}

	trun, err := b.Locate(bmff.TypeTrun, traf)
	if err != nil {
		return Detection{}, undetermined(err)
	}
	rate, err = FromTrun(b, trun, float64(durationTicks)/float64(timescale))
	if err != nil {
		return Detection{}, undetermined(err)
	}
	if !valid(rate) {
		return Detection{}, fmt.Errorf("%w: %d samples over %d ticks at timescale %d",
			ErrUndetermined, sampleCount(b, trun), durationTicks, timescale)
	}
	d.FrameRate, d.Source = rate, SourceTrun
	return d, nil
}

// FromTfhd computes timescale / default_sample_duration from the tfhd box
// whose content starts at off. It returns -1 when the box carries no default
// sample duration.
func FromTfhd(b bmff.Buffer, off int, timescale uint32) (float64, error) {
	duration, ok, err := DefaultSampleDuration(b, off)
	if err != nil {
		return 0, err
	}
	if !ok || duration == 0 {
		return -1, nil
	}
	return float64(timescale) / float64(duration), nil
}

// DefaultSampleDuration reads default_sample_duration from the tfhd box whose
// content starts at off. ok is false when the duration-present flag is clear.
func DefaultSampleDuration(b bmff.Buffer, off int) (duration uint32, ok bool, err error) {
	vf, err := b.Uint32At(off)
	if err != nil {
		return 0, false, err
	}
	flags := vf & 0x00ffffff
	pos := off + 4

	pos += 4 // track_ID
	if flags&bmff.TfhdBaseDataOffsetPresent != 0 {
		pos += 8
	}
	if flags&bmff.TfhdSampleDescriptionIndexPresent != 0 {
		pos += 4
	}
	if flags&bmff.TfhdDefaultSampleDurationPresent == 0 {
		return 0, false, nil
	}

	duration, err = b.Uint32At(pos)
	if err != nil {
		return 0, false, err
	}
	return duration, true, nil
}

// FromTrun computes sample_count / seconds from the trun box whose content
// starts at off.
func FromTrun(b bmff.Buffer, off int, seconds float64) (float64, error) {
	count, err := b.Uint32At(off + 4) // past version and flags
	if err != nil {
		return 0, err
	}
	return float64(count) / seconds, nil
}

func sampleCount(b bmff.Buffer, off int) uint32 {
	n, _ := b.Uint32At(off + 4)
	return n
}

func valid(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}

func undetermined(err error) error {
	return fmt.Errorf("%w: %w", ErrUndetermined, err)
}
