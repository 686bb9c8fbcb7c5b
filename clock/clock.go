// Package clock holds the frame rate, timescale and drop-frame setting used
// for timecode conversion, and tells subscribers when they change.
//
// The conversions in package smpte are pure functions of their arguments.
// A Clock is the mutable "current settings" object that sits in front of
// them: it starts from configured defaults, can be calibrated from a media
// fragment, and converts using whatever it currently holds.
//
//	c := clock.New(clock.Options{DefaultFrameRate: 25})
//	defer c.Close()
//
//	events := make(chan clock.Event, 4)
//	c.Subscribe("ui", events)
//
//	if err := c.Calibrate(fragment, durationTicks); err != nil {
//	    // c.FrameRate() still returns the default
//	}
//	tc, err := c.ToTimecode(12.5)
//
// All methods are safe for concurrent use.
package clock

import (
	"log/slog"
	"math"
	"sync"

	"github.com/tetsuo/smpte"
	"github.com/tetsuo/smpte/framerate"
)

// Defaults used when Options leave a value unset or invalid.
const (
	DefaultFrameRate = 30
	DefaultTimescale = 10_000_000
)

// Options configures a Clock.
type Options struct {
	// DefaultFrameRate is reported until a positive frame rate is set or calibrated.
	DefaultFrameRate float64

	// DefaultTimescale is reported until a positive timescale is set.
	DefaultTimescale uint32

	// DropFrame is the initial drop-frame setting.
	DropFrame bool

	// Logger receives change and fallback messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Clock is the current timecode configuration.
type Clock struct {
	mu               sync.RWMutex
	defaultFrameRate float64
	defaultTimescale uint32
	frameRate        float64
	timescale        uint32
	dropFrame        bool
	log              *slog.Logger

	subs subscribers
}

// New creates a Clock from opts.
func New(opts Options) *Clock {
	c := &Clock{
		defaultFrameRate: opts.DefaultFrameRate,
		defaultTimescale: opts.DefaultTimescale,
		dropFrame:        opts.DropFrame,
		log:              opts.Logger,
	}
	if !positive(c.defaultFrameRate) {
		c.defaultFrameRate = DefaultFrameRate
	}
	if c.defaultTimescale == 0 {
		c.defaultTimescale = DefaultTimescale
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.subs.init()
	return c
}

// FrameRate returns the current frame rate, or the default when none has
// been determined.
func (c *Clock) FrameRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frameRateLocked()
}

func (c *Clock) frameRateLocked() float64 {
	if positive(c.frameRate) {
		return c.frameRate
	}
	return c.defaultFrameRate
}

// SetFrameRate stores v and sends EventFrameRateReady when it differs from
// the stored value. A non-positive v makes FrameRate fall back to the default.
func (c *Clock) SetFrameRate(v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	c.mu.Lock()
	if c.frameRate == v {
		c.mu.Unlock()
		return
	}
	c.frameRate = v
	ev := c.eventLocked(EventFrameRateReady, nil)
	c.mu.Unlock()

	c.log.Debug("clock: frame rate changed", "frameRate", ev.FrameRate)
	c.subs.publish(ev)
}

// Timescale returns the current timescale, or the default when unset.
func (c *Clock) Timescale() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.timescaleLocked()
}

func (c *Clock) timescaleLocked() uint32 {
	if c.timescale > 0 {
		return c.timescale
	}
	return c.defaultTimescale
}

// SetTimescale sets the number of ticks per second of fragment durations
// passed to Calibrate. Zero restores the default.
func (c *Clock) SetTimescale(v uint32) {
	c.mu.Lock()
	c.timescale = v
	c.mu.Unlock()
}

// DropFrame reports whether drop-frame timecodes are requested.
func (c *Clock) DropFrame() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dropFrame
}

// SetDropFrame changes the drop-frame setting and sends EventDropFrameChanged
// when it differs from the current one.
func (c *Clock) SetDropFrame(v bool) {
	c.mu.Lock()
	if c.dropFrame == v {
		c.mu.Unlock()
		return
	}
	c.dropFrame = v
	ev := c.eventLocked(EventDropFrameChanged, nil)
	c.mu.Unlock()

	c.log.Debug("clock: drop frame changed", "dropFrame", v)
	c.subs.publish(ev)
}

// ToTimecode formats seconds using the current settings.
func (c *Clock) ToTimecode(seconds float64) (string, error) {
	c.mu.RLock()
	rate, drop := c.frameRateLocked(), c.dropFrame
	c.mu.RUnlock()
	return smpte.ToTimecode(seconds, rate, drop)
}

// FromTimecode parses text using the current settings.
func (c *Clock) FromTimecode(text string) (float64, error) {
	c.mu.RLock()
	rate, drop := c.frameRateLocked(), c.dropFrame
	c.mu.RUnlock()
	return smpte.FromTimecode(text, rate, drop)
}

// Calibrate derives the frame rate from a fragment that starts with its moof
// box. durationTicks is the fragment duration in the clock's timescale.
//
// On success the frame rate is stored and EventFrameRateReady is sent, even
// if the value did not change. On failure the stored value is left alone,
// EventFrameRateError is sent, and the error is returned.
func (c *Clock) Calibrate(fragment []byte, durationTicks uint64) error {
	timescale := c.Timescale()
	d, err := framerate.Detect(fragment, durationTicks, timescale)
	if err != nil {
		c.mu.RLock()
		ev := c.eventLocked(EventFrameRateError, err)
		c.mu.RUnlock()

		c.log.Warn("clock: could not calculate the frame rate, using default",
			"default", ev.FrameRate,
			"timescale", timescale,
			"error", err,
		)
		c.subs.publish(ev)
		return err
	}

	c.mu.Lock()
	c.frameRate = d.FrameRate
	ev := c.eventLocked(EventFrameRateReady, nil)
	c.mu.Unlock()
	ev.Source, ev.TrackID = d.Source, d.TrackID

	c.log.Info("clock: frame rate calculated",
		"frameRate", d.FrameRate,
		"source", d.Source.String(),
		"trackId", d.TrackID,
	)
	c.subs.publish(ev)
	return nil
}

// Close stops notifications. Settings and conversions keep working.
func (c *Clock) Close() error {
	return c.subs.close()
}

func (c *Clock) eventLocked(kind EventKind, err error) Event {
	return Event{
		Kind:      kind,
		FrameRate: c.frameRateLocked(),
		DropFrame: c.dropFrame,
		Err:       err,
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
