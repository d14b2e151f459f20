package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagWidth       = flag.Int("width", 0, "Chunk grid width")
	flagHeight      = flag.Int("height", 0, "Chunk grid height")
	flagGroup       = flag.Int("group", -1, "Group id written to every entry")
	flagOutput      = flag.String("o", "", "Output Nav2 file")
	flagDumpChunks  = flag.String("dump-chunks", "", "Directory for per-chunk OBJ dumps")
	flagMetricsFile = flag.String("metrics-file", "", "Write Prometheus textfile metrics to this path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Grid.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Grid.Height = *flagHeight
	}
	if *flagGroup >= 0 {
		cfg.Output.GroupID = *flagGroup
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagDumpChunks != "" {
		cfg.Debug.DumpChunks = *flagDumpChunks
	}
	if *flagMetricsFile != "" {
		cfg.Metrics.File = *flagMetricsFile
	}
}
