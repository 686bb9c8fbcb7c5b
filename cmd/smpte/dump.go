package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/tetsuo/smpte/bmff"
	"github.com/tetsuo/smpte/internal/config"
)

// boxRecord describes one box of a dumped segment.
type boxRecord struct {
	Type   string `json:"type" msgpack:"type"`
	Offset int64  `json:"offset" msgpack:"offset"`
	Size   int64  `json:"size" msgpack:"size"`
	Depth  int    `json:"depth" msgpack:"depth"`

	UserType            string `json:"userType,omitempty" msgpack:"userType,omitempty"`
	Flags               uint32 `json:"flags,omitempty" msgpack:"flags,omitempty"`
	Sequence            uint32 `json:"sequence,omitempty" msgpack:"sequence,omitempty"`
	TrackID             uint32 `json:"trackId,omitempty" msgpack:"trackId,omitempty"`
	DefaultDuration     uint32 `json:"defaultSampleDuration,omitempty" msgpack:"defaultSampleDuration,omitempty"`
	BaseMediaDecodeTime uint64 `json:"baseMediaDecodeTime,omitempty" msgpack:"baseMediaDecodeTime,omitempty"`
	SampleCount         uint32 `json:"sampleCount,omitempty" msgpack:"sampleCount,omitempty"`
	SampleDuration      uint64 `json:"sampleDuration,omitempty" msgpack:"sampleDuration,omitempty"`
	Error               string `json:"error,omitempty" msgpack:"error,omitempty"`
}

func (r boxRecord) text() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", r.Depth))
	fmt.Fprintf(&b, "[%s] size=%d", r.Type, r.Size)
	if r.UserType != "" {
		fmt.Fprintf(&b, " usertype=%s", r.UserType)
	}
	switch r.Type {
	case "mfhd":
		fmt.Fprintf(&b, " sequence=%d", r.Sequence)
	case "tfhd":
		fmt.Fprintf(&b, " flags=0x%06x trackId=%d", r.Flags, r.TrackID)
		if r.DefaultDuration > 0 {
			fmt.Fprintf(&b, " defaultSampleDuration=%d", r.DefaultDuration)
		}
	case "tfdt":
		fmt.Fprintf(&b, " baseMediaDecodeTime=%d", r.BaseMediaDecodeTime)
	case "trun":
		fmt.Fprintf(&b, " flags=0x%06x samples=%d duration=%d", r.Flags, r.SampleCount, r.SampleDuration)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, " error=%q", r.Error)
	}
	return b.String()
}

func runDump(_ *config.Config, out *output, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("dump: expected one segment file, got %d", fs.NArg())
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bmff.NewScanner(f)
	for sc.Next() {
		e := sc.Entry()
		out.add(boxRecord{Type: e.Type.String(), Offset: e.Offset, Size: e.Size})

		if e.Type != bmff.TypeMoof {
			continue
		}
		buf := make([]byte, e.Size)
		if err := sc.ReadBox(buf); err != nil {
			return err
		}
		d := fragmentDumper{out: out, b: bmff.NewBuffer(buf), base: e.Offset}
		if err := d.walk(e.HeaderSize, len(buf), 1); err != nil {
			return fmt.Errorf("moof at %d: %w", e.Offset, err)
		}
	}
	return sc.Err()
}

// fragmentDumper walks the children of a loaded moof box. Unlike Locate, the
// walk is bounded by each parent box.
type fragmentDumper struct {
	out             *output
	b               bmff.Buffer
	base            int64  // file offset of the loaded buffer
	defaultDuration uint32 // from the most recent tfhd
}

func (d *fragmentDumper) walk(start, end, depth int) error {
	for pos := start; pos+8 <= end; {
		h, err := d.b.Header(pos)
		if err != nil {
			return err
		}
		if int(h.Size) < h.Content-h.Offset || h.End() > end {
			return fmt.Errorf("%w: %s box at %d declares size %d", bmff.ErrMalformed, h.Type, d.base+int64(h.Offset), h.Size)
		}

		rec := boxRecord{
			Type:   h.Type.String(),
			Offset: d.base + int64(h.Offset),
			Size:   int64(h.Size),
			Depth:  depth,
		}
		if h.UserType != uuid.Nil {
			rec.UserType = h.UserType.String()
		}
		if err := d.describe(&rec, h); err != nil {
			rec.Error = err.Error()
		}
		d.out.add(rec)

		if bmff.IsContainerBox(h.Type) {
			if err := d.walk(h.Content, h.End(), depth+1); err != nil {
				return err
			}
		}
		pos = h.End()
	}
	return nil
}

func (d *fragmentDumper) describe(rec *boxRecord, h bmff.Header) error {
	var err error
	switch h.Type {
	case bmff.TypeMfhd:
		rec.Sequence, err = d.b.ReadMfhd(h.Content)

	case bmff.TypeTfhd:
		var tfhd bmff.Tfhd
		if tfhd, err = d.b.ReadTfhd(h.Content); err == nil {
			rec.Flags, rec.TrackID = tfhd.Flags, tfhd.TrackID
			rec.DefaultDuration = tfhd.DefaultSampleDuration
			d.defaultDuration = tfhd.DefaultSampleDuration
		}

	case bmff.TypeTfdt:
		rec.BaseMediaDecodeTime, err = d.b.ReadTfdt(h.Content)

	case bmff.TypeTrun:
		var it bmff.TrunIter
		if it, err = d.b.Trun(h.Content); err != nil {
			return err
		}
		rec.Flags, rec.SampleCount = it.Flags(), it.Count()
		if it.Flags()&bmff.TrunSampleDurationPresent == 0 {
			rec.SampleDuration = uint64(it.Count()) * uint64(d.defaultDuration)
			return nil
		}
		for {
			e, ok := it.Next()
			if !ok {
				break
			}
			rec.SampleDuration += uint64(e.Duration)
		}
		err = it.Err()
	}
	return err
}
