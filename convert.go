package smpte

import (
	"fmt"
	"math"
)

// maxFrames bounds frame counts so they stay exact in both int64 and float64.
const maxFrames = 1 << 53

// maxFieldBits caps every parsed timecode field, days included, at
// maxField so it fits an int on 32-bit platforms.
const (
	maxFieldBits = 31
	maxField     = 1<<maxFieldBits - 1
)

// Frames converts elapsed seconds to a whole frame count at rate.
func Frames(seconds, rate float64) int64 {
	return int64(math.Floor(rate * (seconds + epsilon)))
}

// Seconds converts a frame count to elapsed seconds at rate, rounded to the
// microsecond.
func Seconds(frames, rate float64) float64 {
	return round6(frames/rate+epsilon) + timeBias
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// ToTimecode formats the elapsed time in seconds as a timecode.
// seconds must be finite and non-negative.
func ToTimecode(seconds, rate float64, drop bool) (string, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "", fmt.Errorf("%w: time %v", ErrInvalid, seconds)
	}
	if err := checkRate(rate); err != nil {
		return "", err
	}
	if rate*seconds >= maxFrames {
		return "", fmt.Errorf("%w: time %v out of range", ErrInvalid, seconds)
	}
	return FromFrames(Frames(seconds, rate), rate, drop).String(), nil
}

// FromTimecode returns the elapsed time in seconds that text denotes.
func FromTimecode(text string, rate float64, drop bool) (float64, error) {
	if err := checkRate(rate); err != nil {
		return 0, err
	}
	tc, err := Parse(text)
	if err != nil {
		return 0, err
	}
	if err := tc.Validate(rate); err != nil {
		return 0, err
	}
	return Seconds(tc.FrameCount(rate, drop), rate), nil
}

func checkRate(rate float64) error {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return fmt.Errorf("%w: frame rate %v", ErrInvalid, rate)
	}
	return nil
}
