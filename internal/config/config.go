// Package config handles converter configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all converter settings.
type Config struct {
	Grid    GridConfig    `yaml:"grid"`
	Output  OutputConfig  `yaml:"output"`
	Debug   DebugConfig   `yaml:"debug"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// GridConfig holds the partition grid dimensions.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// OutputConfig holds Nav2 output settings.
type OutputConfig struct {
	Path       string `yaml:"path"`
	GroupID    int    `yaml:"group_id"`
	SplitFiles int    `yaml:"split_files"` // only 1 is supported
}

// DebugConfig holds diagnostic output settings.
type DebugConfig struct {
	DumpChunks    string `yaml:"dump_chunks"` // directory for per-chunk OBJ files
	CompressDumps bool   `yaml:"compress_dumps"`
}

// MetricsConfig holds metrics output settings.
type MetricsConfig struct {
	File string `yaml:"file"` // node-exporter textfile, empty to disable
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"` // console or json
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Width:  10,
			Height: 10,
		},
		Output: OutputConfig{
			Path:       "output.nav2",
			GroupID:    0,
			SplitFiles: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			LogFile: "",
		},
	}
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Grid.Width < 1 || c.Grid.Height < 1 {
		return fmt.Errorf("%w: grid %dx%d, both dimensions must be at least 1", ErrInvalidConfig, c.Grid.Width, c.Grid.Height)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalidConfig)
	}
	if c.Output.GroupID < 0 || c.Output.GroupID > math.MaxUint8 {
		return fmt.Errorf("%w: group_id %d out of range 0-255", ErrInvalidConfig, c.Output.GroupID)
	}
	if c.Output.SplitFiles != 1 {
		return fmt.Errorf("%w: split_files %d, only single-file output is supported", ErrInvalidConfig, c.Output.SplitFiles)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}
