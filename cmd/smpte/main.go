// Command smpte converts between seconds and SMPTE timecodes, detects the
// frame rate of fragmented MP4 segments and prints their box structure.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tetsuo/smpte/internal/config"
)

const usage = `usage: %s [-config file.yaml] [-format text|json|msgpack] <command> [flags] args...

commands:
  totc   [-rate R] [-drop] <seconds>...          format seconds as timecodes
  fromtc [-rate R] [-drop] <timecode>...         parse timecodes into seconds
  rate   [-duration D] [-timescale T] <file>     detect the frame rate of a fragment
  synth  [flags] <file>                          write a minimal fragment
  dump   <file>                                  list top-level boxes and moof contents
`

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	formatFlag := flag.String("format", "", "output format: text, json, msgpack (default from config)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if *formatFlag != "" {
		cfg.Format = strings.ToLower(*formatFlag)
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
	}

	level, _ := cfg.Level() // validated above
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	out := newOutput(os.Stdout, cfg.Format)

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "totc":
		err = runToTimecode(cfg, out, args)
	case "fromtc":
		err = runFromTimecode(cfg, out, args)
	case "rate":
		err = runRate(cfg, out, args)
	case "synth":
		err = runSynth(cfg, out, args)
	case "dump":
		err = runDump(cfg, out, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	if ferr := out.flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		slog.Error("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}
