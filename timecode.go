// Package smpte converts between elapsed time and SMPTE timecodes.
//
// Timecodes are written [DD:]HH:MM:SS:FF, or [DD:]HH:MM:SS;FF for NTSC
// drop-frame. The days field is printed only when it is not zero.
//
// Drop-frame counting applies only at 29.97 fps (see UsesDropFrame). At every
// other rate the frame count is decomposed with the rate from Normalize, so
// 23.976 counts like 24 and 29.97 non-drop counts like 30.
//
// Any other fractional rate is used as is: a second of timecode holds rate
// frames, so the frames field runs up to floor(rate) and the fraction is
// lost. At 23.5 fps frame 455 is labelled 00:00:19:08, which reads back as
// frame 454.5. Round trips are exact only for whole and NTSC rates.
package smpte

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalid is returned for times and timecodes that cannot be converted.
var ErrInvalid = errors.New("smpte: invalid")

// Timecode is a decomposed SMPTE timecode.
type Timecode struct {
	Days      int
	Hours     int
	Minutes   int
	Seconds   int
	Frames    int
	DropFrame bool
}

// String formats the timecode. Hours, minutes, seconds and frames are padded
// to two digits; days are printed unpadded and only when non-zero.
func (tc Timecode) String() string {
	sep := byte(':')
	if tc.DropFrame {
		sep = ';'
	}
	var b strings.Builder
	if tc.Days > 0 {
		b.WriteString(strconv.Itoa(tc.Days))
		b.WriteByte(':')
	}
	pad2(&b, tc.Hours)
	b.WriteByte(':')
	pad2(&b, tc.Minutes)
	b.WriteByte(':')
	pad2(&b, tc.Seconds)
	b.WriteByte(sep)
	pad2(&b, tc.Frames)
	return b.String()
}

func pad2(b *strings.Builder, v int) {
	if v < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.Itoa(v))
}

// Parse splits text into timecode fields without checking their ranges.
//
// Everything before a ';' is split on ':' and the part after ';' becomes the
// frames field. Four fields are hours, minutes, seconds, frames; five start
// with days. Each field must be a non-negative decimal integer no greater
// than maxField, which bounds the days field as well.
func Parse(text string) (Timecode, error) {
	head, frames, hasSemi := strings.Cut(text, ";")
	if strings.Contains(frames, ";") {
		return Timecode{}, fmt.Errorf("%w: timecode %q has more than one ';'", ErrInvalid, text)
	}
	parts := strings.Split(head, ":")
	if hasSemi {
		parts = append(parts, frames)
	}
	if len(parts) != 4 && len(parts) != 5 {
		return Timecode{}, fmt.Errorf("%w: timecode %q has %d fields", ErrInvalid, text, len(parts))
	}

	var fields [5]int
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, maxFieldBits)
		if err != nil {
			return Timecode{}, fmt.Errorf("%w: timecode %q field %q", ErrInvalid, text, p)
		}
		fields[i] = int(v)
	}

	tc := Timecode{DropFrame: hasSemi}
	f := fields[:len(parts)]
	if len(f) == 5 {
		tc.Days, f = f[0], f[1:]
	}
	tc.Hours, tc.Minutes, tc.Seconds, tc.Frames = f[0], f[1], f[2], f[3]
	return tc, nil
}

// Validate checks the field ranges against rate.
func (tc Timecode) Validate(rate float64) error {
	switch {
	case tc.Days < 0, tc.Hours < 0, tc.Minutes < 0, tc.Seconds < 0, tc.Frames < 0:
		return fmt.Errorf("%w: negative field in %s", ErrInvalid, tc)
	case tc.Hours >= 24:
		return fmt.Errorf("%w: hours %d out of range", ErrInvalid, tc.Hours)
	case tc.Minutes >= 60:
		return fmt.Errorf("%w: minutes %d out of range", ErrInvalid, tc.Minutes)
	case tc.Seconds >= 60:
		return fmt.Errorf("%w: seconds %d out of range", ErrInvalid, tc.Seconds)
	case float64(tc.Frames) >= rate:
		return fmt.Errorf("%w: frames %d out of range at %g fps", ErrInvalid, tc.Frames, rate)
	}
	return nil
}

// FromFrames decomposes a frame count into a timecode.
func FromFrames(count int64, rate float64, drop bool) Timecode {
	if UsesDropFrame(rate, drop) {
		return fromDropFrames(count)
	}
	return fromFrames(float64(count), Normalize(rate))
}

func fromDropFrames(count int64) Timecode {
	days := count / dropFramesPerDay
	hours := (count / dropFramesPerHour) % 24

	// frames into the current hour
	r := count - days*dropFramesPerDay - hours*dropFramesPerHour
	minutes := ((r + 2*(r/nominalFramesPerMinute) - 2*(r/dropFramesPerTenMinutes)) / nominalFramesPerMinute) % 60
	r -= dropFramesPerMinute*minutes + 2*(minutes/10)
	seconds := (r / nominalFramesPerSecond) % 60
	frames := (r - nominalFramesPerSecond*seconds) % nominalFramesPerSecond

	return Timecode{
		Days:      int(days),
		Hours:     int(hours),
		Minutes:   int(minutes),
		Seconds:   int(seconds),
		Frames:    int(frames),
		DropFrame: true,
	}
}

func fromFrames(count, fps float64) Timecode {
	fpm := fps * 60
	fph := fpm * 60

	days := math.Floor(count / fph / 24)
	hours := math.Floor(math.Mod(count/fph, 24))
	minutes := math.Floor(math.Mod((count-fph*hours)/fpm, 60))
	seconds := math.Floor(math.Mod((count-fpm*minutes-fph*hours)/fps, 60))
	frames := math.Floor(math.Mod(count-fps*seconds-fpm*minutes-fph*hours, fps))

	return Timecode{
		Days:    int(days),
		Hours:   int(hours),
		Minutes: int(minutes),
		Seconds: int(seconds),
		Frames:  int(frames),
	}
}

// FrameCount composes the fields back into a frame count. The drop-frame
// layout is used when UsesDropFrame(rate, drop), regardless of tc.DropFrame.
func (tc Timecode) FrameCount(rate float64, drop bool) float64 {
	if UsesDropFrame(rate, drop) {
		minutes := int64(tc.Minutes)
		n := int64(tc.Frames) +
			nominalFramesPerSecond*int64(tc.Seconds) +
			dropFramesPerMinute*minutes + 2*(minutes/10) +
			dropFramesPerHour*int64(tc.Hours) +
			dropFramesPerDay*int64(tc.Days)
		return float64(n)
	}

	fps := Normalize(rate)
	fpm := fps * 60
	fph := fpm * 60
	return float64(tc.Frames) +
		float64(tc.Seconds)*fps +
		float64(tc.Minutes)*fpm +
		float64(tc.Hours)*fph +
		float64(tc.Days)*fph*24
}
