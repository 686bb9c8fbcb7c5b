package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/tetsuo/smpte"
	"github.com/tetsuo/smpte/bmff"
	"github.com/tetsuo/smpte/clock"
	"github.com/tetsuo/smpte/internal/config"
)

var errSomeFailed = errors.New("some inputs could not be converted")

func conversionFlags(name string, cfg *config.Config) (*flag.FlagSet, *float64, *bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	rate := fs.Float64("rate", cfg.FrameRate, "frame rate in frames per second")
	drop := fs.Bool("drop", cfg.DropFrame, "use NTSC drop-frame timecodes (29.97 fps only)")
	return fs, rate, drop
}

func runToTimecode(cfg *config.Config, out *output, args []string) error {
	fs, rate, drop := conversionFlags("totc", cfg)
	fs.Parse(args)

	var failed bool
	for _, arg := range fs.Args() {
		rec := record{Input: arg, FrameRate: *rate, DropFrame: smpte.UsesDropFrame(*rate, *drop)}
		seconds, err := strconv.ParseFloat(arg, 64)
		if err == nil {
			rec.Timecode, err = smpte.ToTimecode(seconds, *rate, *drop)
			rec.Seconds = &seconds
		}
		if err != nil {
			rec.Error = err.Error()
			failed = true
		}
		out.add(rec)
	}
	if failed {
		return errSomeFailed
	}
	return nil
}

func runFromTimecode(cfg *config.Config, out *output, args []string) error {
	fs, rate, drop := conversionFlags("fromtc", cfg)
	fs.Parse(args)

	var failed bool
	for _, arg := range fs.Args() {
		rec := record{Input: arg, Timecode: arg, FrameRate: *rate, DropFrame: smpte.UsesDropFrame(*rate, *drop)}
		seconds, err := smpte.FromTimecode(arg, *rate, *drop)
		if err != nil {
			rec.Error = err.Error()
			failed = true
		} else {
			rec.Seconds = &seconds
		}
		out.add(rec)
	}
	if failed {
		return errSomeFailed
	}
	return nil
}

func runRate(cfg *config.Config, out *output, args []string) error {
	fs := flag.NewFlagSet("rate", flag.ExitOnError)
	duration := fs.Uint64("duration", 0, "fragment duration in timescale ticks")
	timescale := fs.Uint("timescale", uint(cfg.Timescale), "ticks per second")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("rate: expected one fragment file, got %d", fs.NArg())
	}
	path := fs.Arg(0)

	buf, err := readMoof(path)
	if err != nil {
		return err
	}

	c := clock.New(clock.Options{
		DefaultFrameRate: cfg.FrameRate,
		DefaultTimescale: cfg.Timescale,
		DropFrame:        cfg.DropFrame,
	})
	defer c.Close()
	c.SetTimescale(uint32(*timescale))

	events := make(chan clock.Event, 1)
	if err := c.Subscribe("cli", events); err != nil {
		return err
	}
	calErr := c.Calibrate(buf, *duration)
	ev := <-events

	rec := record{
		Input:     path,
		FrameRate: ev.FrameRate,
		DropFrame: smpte.UsesDropFrame(ev.FrameRate, ev.DropFrame),
		Source:    ev.Source.String(),
		TrackID:   ev.TrackID,
		Duration:  *duration,
		Timescale: c.Timescale(),
	}
	if ev.Kind == clock.EventFrameRateError {
		rec.Default = true
		rec.Error = ev.Err.Error()
	}
	out.add(rec)
	return calErr
}

// readMoof loads the first top-level moof box of the file at path.
func readMoof(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bmff.NewScanner(f)
	e, err := sc.Find(bmff.TypeMoof)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	buf := make([]byte, e.Size)
	if err := sc.ReadBox(buf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

func runSynth(cfg *config.Config, out *output, args []string) error {
	fs := flag.NewFlagSet("synth", flag.ExitOnError)
	timescale := fs.Uint("timescale", uint(cfg.Timescale), "ticks per second")
	sampleDuration := fs.Uint("sample-duration", 0, "ticks per sample (default timescale / config frame_rate)")
	samples := fs.Uint("samples", 48, "number of samples in the fragment")
	inTfhd := fs.Bool("tfhd", true, "store the sample duration in tfhd instead of per-sample trun entries")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("synth: expected one output file, got %d", fs.NArg())
	}
	if *timescale == 0 || *samples == 0 {
		return fmt.Errorf("synth: timescale and samples must be > 0")
	}
	if *sampleDuration == 0 {
		*sampleDuration = uint(float64(*timescale)/cfg.FrameRate + 0.5)
	}

	frag := synthFragment(uint32(*sampleDuration), int(*samples), *inTfhd)
	if err := os.WriteFile(fs.Arg(0), frag, 0o644); err != nil {
		return err
	}

	out.add(record{
		Input:     fs.Arg(0),
		Bytes:     len(frag),
		Duration:  uint64(*sampleDuration) * uint64(*samples),
		Timescale: uint32(*timescale),
	})
	return nil
}

// synthFragment writes styp, a single-track moof, and an mdat of one byte per sample.
func synthFragment(sampleDuration uint32, samples int, inTfhd bool) []byte {
	w := bmff.NewWriter(make([]byte, 0, 512+samples*12))
	w.WriteStyp([4]byte{'m', 's', 'd', 'h'}, 0, [][4]byte{{'m', 's', 'd', 'h'}, {'m', 's', 'i', 'x'}})

	entries := make([]bmff.TrunEntry, samples)
	for i := range entries {
		entries[i] = bmff.TrunEntry{Duration: sampleDuration, Size: 1}
	}

	w.StartBox(bmff.TypeMoof)
	w.WriteMfhd(1)
	w.StartBox(bmff.TypeTraf)
	trunFlags := uint32(bmff.TrunSampleSizePresent)
	if inTfhd {
		w.WriteTfhd(bmff.TfhdDefaultSampleDurationPresent|bmff.TfhdDefaultBaseIsMoof, 1,
			bmff.TfhdFields{DefaultSampleDuration: sampleDuration})
	} else {
		w.WriteTfhd(bmff.TfhdDefaultBaseIsMoof, 1, bmff.TfhdFields{})
		trunFlags |= bmff.TrunSampleDurationPresent
	}
	w.WriteTfdt(0)
	w.WriteTrun(trunFlags, 0, entries)
	w.EndBox() // traf
	w.EndBox() // moof

	w.WriteMdat(make([]byte, samples))
	return w.Bytes()
}
