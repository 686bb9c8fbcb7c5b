package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// record is one line of command output.
type record struct {
	Input     string   `json:"input" msgpack:"input"`
	Timecode  string   `json:"timecode,omitempty" msgpack:"timecode,omitempty"`
	Seconds   *float64 `json:"seconds,omitempty" msgpack:"seconds,omitempty"`
	FrameRate float64  `json:"frameRate,omitempty" msgpack:"frameRate,omitempty"`
	DropFrame bool     `json:"dropFrame,omitempty" msgpack:"dropFrame,omitempty"`
	Source    string   `json:"source,omitempty" msgpack:"source,omitempty"`
	TrackID   uint32   `json:"trackId,omitempty" msgpack:"trackId,omitempty"`
	Duration  uint64   `json:"duration,omitempty" msgpack:"duration,omitempty"`
	Timescale uint32   `json:"timescale,omitempty" msgpack:"timescale,omitempty"`
	Bytes     int      `json:"bytes,omitempty" msgpack:"bytes,omitempty"`
	Default   bool     `json:"default,omitempty" msgpack:"default,omitempty"`
	Error     string   `json:"error,omitempty" msgpack:"error,omitempty"`
}

// item is anything a command reports.
type item interface {
	text() string
}

// output collects items and writes them in the configured format.
// Text is written as it arrives; json and msgpack are written as one array.
type output struct {
	w       io.Writer
	format  string
	records []item
}

func newOutput(w io.Writer, format string) *output {
	return &output{w: w, format: format}
}

func (o *output) add(r item) {
	if o.format == "text" {
		fmt.Fprintln(o.w, r.text())
		return
	}
	o.records = append(o.records, r)
}

func (o *output) flush() error {
	switch o.format {
	case "json":
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(o.records)
	case "msgpack":
		return msgpack.NewEncoder(o.w).Encode(o.records)
	}
	return nil
}

func (r record) text() string {
	if r.Error != "" {
		if r.Default {
			return fmt.Sprintf("%s\t%g fps (default)\t%s", r.Input, r.FrameRate, r.Error)
		}
		return fmt.Sprintf("%s\terror: %s", r.Input, r.Error)
	}
	switch {
	case r.Timecode != "" && r.Seconds != nil:
		return fmt.Sprintf("%s\t%s\t%.6f", r.Input, r.Timecode, *r.Seconds)
	case r.Bytes > 0:
		return fmt.Sprintf("%s\t%d bytes\tduration=%d timescale=%d", r.Input, r.Bytes, r.Duration, r.Timescale)
	case r.FrameRate > 0:
		return fmt.Sprintf("%s\t%.4f fps\tsource=%s trackId=%d", r.Input, r.FrameRate, r.Source, r.TrackID)
	}
	return r.Input
}
