package smpte

import (
	"errors"
	"math"
	"testing"
)

func TestToTimecode(t *testing.T) {
	tests := []struct {
		seconds float64
		rate    float64
		drop    bool
		want    string
	}{
		{0, 30, false, "00:00:00:00"},
		{1, 30, false, "00:00:01:00"},
		{0.5, 30, false, "00:00:00:15"},
		{3600, 25, false, "01:00:00:00"},
		{86400, 30, false, "1:00:00:00:00"},
		{90061, 24, false, "1:01:01:01:00"},
		{1, NTSCFilm, false, "00:00:00:23"},
		{0, NTSCVideo, true, "00:00:00;00"},
		// Drop-frame only applies at 29.97.
		{1, 30, true, "00:00:01:00"},
	}
	for _, tt := range tests {
		got, err := ToTimecode(tt.seconds, tt.rate, tt.drop)
		if err != nil {
			t.Errorf("ToTimecode(%v, %v, %v) error: %v", tt.seconds, tt.rate, tt.drop, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToTimecode(%v, %v, %v) = %q, want %q", tt.seconds, tt.rate, tt.drop, got, tt.want)
		}
	}
}

func TestToTimecode_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		rate    float64
	}{
		{"NaN", math.NaN(), 30},
		{"+Inf", math.Inf(1), 30},
		{"-Inf", math.Inf(-1), 30},
		{"negative", -0.5, 30},
		{"zero rate", 1, 0},
		{"negative rate", 1, -25},
		{"NaN rate", 1, math.NaN()},
		{"Inf rate", 1, math.Inf(1)},
		{"too large", 1e300, 30},
	}
	for _, tt := range tests {
		if _, err := ToTimecode(tt.seconds, tt.rate, false); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: got %v, want ErrInvalid", tt.name, err)
		}
	}
}

func TestDropFrame_MinuteBoundary(t *testing.T) {
	tests := []struct {
		count int64
		want  string
	}{
		{1799, "00:00:59;29"},
		{1800, "00:01:00;02"},
		{3597, "00:01:59;29"},
		{3598, "00:02:00;02"},
		{17981, "00:09:59;29"},
		{17982, "00:10:00;00"},
		{107892, "01:00:00;00"},
		{2589407, "23:59:59;29"},
		{2589408, "1:00:00:00;00"},
		{2589408 + 1800, "1:00:01:00;02"},
	}
	for _, tt := range tests {
		if got := FromFrames(tt.count, NTSCVideo, true).String(); got != tt.want {
			t.Errorf("FromFrames(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}

	// The same boundary reached through seconds.
	next, err := ToTimecode(Seconds(1800, NTSCVideo), NTSCVideo, true)
	if err != nil {
		t.Fatal(err)
	}
	if next != "00:01:00;02" {
		t.Errorf("frame after 00:00:59;29 = %q, want 00:01:00;02", next)
	}
}

func TestDropFrame_RoundTrip(t *testing.T) {
	// Two days, so the day carry is covered.
	for n := int64(0); n < 2*dropFramesPerDay; n += 7 {
		tc := FromFrames(n, NTSCVideo, true)
		if tc.Minutes%10 != 0 && tc.Seconds == 0 && tc.Frames < 2 {
			t.Fatalf("frame %d labelled with dropped number %s", n, tc)
		}
		if got := int64(tc.FrameCount(NTSCVideo, true)); got != n {
			t.Fatalf("frame %d -> %s -> %d", n, tc, got)
		}
	}
}

func TestNonDropAtNTSCRate(t *testing.T) {
	// 29.97 without drop counts like 30.
	if got := FromFrames(1800, NTSCVideo, false).String(); got != "00:01:00:00" {
		t.Errorf("got %q, want 00:01:00:00", got)
	}
	if got := FromFrames(24, NTSCFilm, false).String(); got != "00:00:01:00" {
		t.Errorf("got %q, want 00:00:01:00", got)
	}
}

func TestFromTimecode(t *testing.T) {
	tests := []struct {
		text string
		rate float64
		drop bool
		want float64
	}{
		{"00:00:00:00", 30, false, 0},
		{"01:02:03:04", 25, false, 1*3600 + 2*60 + 3 + 4.0/25},
		{"00:00:01:15", 30, false, 1.5},
		{"1:00:00:00:00", 30, false, 86400},
		{"00:01:00;02", NTSCVideo, true, 1800 / NTSCVideo},
		{"00:10:00;00", NTSCVideo, true, 17982 / NTSCVideo},
		{"00:00:01:00", NTSCFilm, false, 24 / NTSCFilm},
	}
	for _, tt := range tests {
		got, err := FromTimecode(tt.text, tt.rate, tt.drop)
		if err != nil {
			t.Errorf("FromTimecode(%q) error: %v", tt.text, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-5 {
			t.Errorf("FromTimecode(%q, %v) = %v, want %v", tt.text, tt.rate, got, tt.want)
		}
	}
}

func TestFromTimecode_Invalid(t *testing.T) {
	tests := []struct {
		text string
		rate float64
	}{
		{"25:00:00:00", 30},
		{"00:60:00:00", 30},
		{"00:00:60:00", 30},
		{"00:00:00:30", 30},
		{"00:00:00:25", 25},
		{"00:00:00", 30},
		{"1:2:3:4:5:6", 30},
		{"", 30},
		{"aa:00:00:00", 30},
		{"-1:00:00:00", 30},
		{"+1:00:00:00", 30},
		{"00:00:00;01;02", NTSCVideo},
		{"00:00:00:00", 0},
		{"00:00:00:00", math.NaN()},
	}
	for _, tt := range tests {
		if _, err := FromTimecode(tt.text, tt.rate, false); !errors.Is(err, ErrInvalid) {
			t.Errorf("FromTimecode(%q, %v): got %v, want ErrInvalid", tt.text, tt.rate, err)
		}
	}
}

func TestParse(t *testing.T) {
	tc, err := Parse("2:01:02:03;04")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Timecode{Days: 2, Hours: 1, Minutes: 2, Seconds: 3, Frames: 4, DropFrame: true}
	if tc != want {
		t.Errorf("Parse = %+v, want %+v", tc, want)
	}
	if tc.String() != "2:01:02:03;04" {
		t.Errorf("String = %q", tc.String())
	}
}

func TestRoundTrip(t *testing.T) {
	rates := []struct {
		rate float64
		drop bool
	}{
		{24, false},
		{25, false},
		{30, false},
		{50, false},
		{60, false},
		{NTSCFilm, false},
		{NTSCVideo, false},
		{NTSCVideo, true},
	}
	for _, r := range rates {
		for _, s := range []float64{0, 0.04, 1, 59.9, 61.5, 599.99, 3599, 3723.16, 43210.5} {
			tc, err := ToTimecode(s, r.rate, r.drop)
			if err != nil {
				t.Fatalf("ToTimecode(%v, %v) error: %v", s, r.rate, err)
			}
			back, err := FromTimecode(tc, r.rate, r.drop)
			if err != nil {
				t.Fatalf("FromTimecode(%q, %v) error: %v", tc, r.rate, err)
			}
			if back > s+1e-5 || s-back > 1/r.rate {
				t.Errorf("rate %v drop %v: %v -> %s -> %v, off by more than a frame", r.rate, r.drop, s, tc, back)
			}
			again, err := ToTimecode(back, r.rate, r.drop)
			if err != nil || again != tc {
				t.Errorf("rate %v drop %v: %s -> %v -> %q", r.rate, r.drop, tc, back, again)
			}
		}
	}
}

func TestRateHelpers(t *testing.T) {
	if !UsesDropFrame(NTSCVideo, true) {
		t.Error("29.97 drop should use drop-frame")
	}
	if UsesDropFrame(30, true) || UsesDropFrame(NTSCVideo, false) {
		t.Error("drop-frame outside 29.97 drop")
	}
	if Normalize(NTSCFilm) != 24 || Normalize(NTSCVideo) != 30 || Normalize(25) != 25 {
		t.Error("Normalize mismatch")
	}
}

func TestFractionalRate_DropsFraction(t *testing.T) {
	// 23.5 is neither whole nor NTSC, so it is not normalized.
	tests := []struct {
		count int64
		want  string
		back  float64
	}{
		{23, "00:00:00:23", 23},
		{24, "00:00:01:00", 23.5},
		{47, "00:00:02:00", 47},
		{455, "00:00:19:08", 454.5},
	}
	for _, tt := range tests {
		tc := FromFrames(tt.count, 23.5, false)
		if got := tc.String(); got != tt.want {
			t.Errorf("FromFrames(%d) = %q, want %q", tt.count, got, tt.want)
		}
		if got := tc.FrameCount(23.5, false); got != tt.back {
			t.Errorf("%s reads back as frame %v, want %v", tt.want, got, tt.back)
		}
	}
}

func TestParse_FieldLimit(t *testing.T) {
	tc, err := Parse("2147483647:00:00:00:00")
	if err != nil {
		t.Fatalf("Parse at maxField: %v", err)
	}
	if tc.Days != maxField {
		t.Errorf("Days = %d, want %d", tc.Days, maxField)
	}
	if _, err := Parse("2147483648:00:00:00:00"); !errors.Is(err, ErrInvalid) {
		t.Errorf("days past maxField: got %v, want ErrInvalid", err)
	}
}
