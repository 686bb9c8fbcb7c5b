package smpte

// Broadcast rates that are not whole numbers.
const (
	NTSCFilm  = 24000.0 / 1001 // 23.976
	NTSCVideo = 30000.0 / 1001 // 29.97
)

// NTSC drop-frame constants at 29.97 fps. Frame numbers 0 and 1 are skipped
// at the start of every minute except every tenth one.
const (
	dropFramesPerMinute     = 1798                   // 30*60 - 2
	dropFramesPerHour       = 107892                 // 17982 * 6
	dropFramesPerDay        = dropFramesPerHour * 24 // 2589408
	dropFramesPerTenMinutes = 18000                  // nominal frames in ten minutes
	nominalFramesPerMinute  = 1800
	nominalFramesPerSecond  = 30
)

// epsilon biases time to frame conversions. It has no effect at float64
// precision but is kept so results match the established output.
const epsilon = 1e-23

// timeBias is added to every frame to time conversion.
// TODO: drop once reference output no longer depends on the extra 1.5µs.
const timeBias = 0.0000015

// IsNTSCFilm reports whether rate is the 23.976 family.
func IsNTSCFilm(rate float64) bool {
	return rate > 23.97 && rate < 23.98
}

// IsNTSCVideo reports whether rate is the 29.97 family.
func IsNTSCVideo(rate float64) bool {
	return rate > 29.97 && rate < 29.98
}

// UsesDropFrame reports whether drop-frame arithmetic applies.
// Drop-frame only exists at 29.97 fps; the flag is ignored at other rates.
func UsesDropFrame(rate float64, drop bool) bool {
	return drop && IsNTSCVideo(rate)
}

// Normalize maps 23.976 to 24 and 29.97 to 30, the rates their timecodes
// count in. Other rates are returned unchanged.
func Normalize(rate float64) float64 {
	switch {
	case IsNTSCFilm(rate):
		return 24
	case IsNTSCVideo(rate):
		return 30
	}
	return rate
}
