package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the defaults used by the smpte command.
type Config struct {
	FrameRate float64 `yaml:"frame_rate"` // used when a fragment yields no frame rate
	Timescale uint32  `yaml:"timescale"`  // ticks per second of fragment durations
	DropFrame bool    `yaml:"drop_frame"`
	LogLevel  string  `yaml:"log_level"` // debug, info, warn, error
	Format    string  `yaml:"format"`    // text, json, msgpack
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		FrameRate: 30,
		Timescale: 10_000_000,
		LogLevel:  "warn",
		Format:    "text",
	}
}

// Load reads and parses a YAML configuration file. Keys missing from the
// file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if !(cfg.FrameRate > 0) {
		return fmt.Errorf("frame_rate must be > 0")
	}
	if cfg.Timescale == 0 {
		return fmt.Errorf("timescale must be > 0")
	}
	if _, err := cfg.Level(); err != nil {
		return err
	}
	switch cfg.Format {
	case "text", "json", "msgpack":
	default:
		return fmt.Errorf("format must be one of text, json, msgpack; got %q", cfg.Format)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
