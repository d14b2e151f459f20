// obj2nav2 converts triangulated OBJ meshes into Nav2 navigation containers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/nav2conv/internal/config"
	"github.com/Faultbox/nav2conv/internal/convert"
	"github.com/Faultbox/nav2conv/internal/logger"
	"github.com/Faultbox/nav2conv/pkg/nav2"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "convert", "c":
		cmdConvert(args)
	case "split":
		cmdSplit(args)
	case "info":
		cmdInfo(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`obj2nav2 - OBJ mesh to Nav2 navigation container converter

Usage:
  obj2nav2 [flags] <command> [arguments]

Commands:
  convert <input.obj> [output.nav2]  Build a Nav2 file from a triangulated mesh
  split <input.obj> <dir>            Partition a mesh and write one OBJ per chunk
  info <file.nav2>                   Show header, manifest and entries of a Nav2 file
  config [path]                      Write the effective config (default: user config dir)

Flags:
  -config <file>        Config file (default ./obj2nav2.yaml)
  -width, -height <n>   Chunk grid dimensions (default 10x10)
  -group <id>           Group id written to every entry
  -o <file>             Output Nav2 file
  -dump-chunks <dir>    Also write every chunk as OBJ
  -metrics-file <file>  Write Prometheus textfile metrics
  -debug                Enable debug logging

Examples:
  obj2nav2 -width 4 -height 4 convert prontera.obj prontera.nav2
  obj2nav2 -width 2 -height 2 split prontera.obj ./chunks
  obj2nav2 info prontera.nav2
  obj2nav2 -width 8 -height 8 config ./obj2nav2.yaml`)
}

// setup loads the configuration and initializes logging.
func setup() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg
}

func cmdConfig(args []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	path := filepath.Join(config.ConfigDir(), config.FileName)
	if len(args) > 0 {
		path = args[0]
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", path)
}

func cmdConvert(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: obj2nav2 [flags] convert <input.obj> [output.nav2]")
		os.Exit(1)
	}

	cfg := setup()
	defer logger.Sync()
	if len(args) > 1 {
		cfg.Output.Path = args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := convert.New(cfg, logger.L()).ConvertFile(ctx, args[0])
	if err != nil {
		logger.Error("conversion failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", res.Output, res.Bytes)
	fmt.Printf("  Chunks:         %d (%dx%d)\n", res.Grid.Len(), res.Grid.Width, res.Grid.Height)
	fmt.Printf("  Faces:          %d\n", res.Faces)
	fmt.Printf("  Navworld:       %d nodes, %d edges, %d zero-cost\n", res.NavworldNodes, res.NavworldEdges, res.ZeroCostNodes)
	fmt.Printf("  Segment graph:  %d chunks, %d edges\n", res.GraphChunks, res.GraphEdges)
}

func cmdSplit(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: obj2nav2 [flags] split <input.obj> <dir>")
		os.Exit(1)
	}

	cfg := setup()
	defer logger.Sync()
	cfg.Debug.DumpChunks = args[1]

	grid, err := convert.New(cfg, logger.L()).Split(context.Background(), args[0])
	if err != nil {
		logger.Error("split failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			chunk := grid.At(x, y)
			fmt.Printf("  %-22s %5d vertices %5d faces\n",
				convert.DumpName(x, y, cfg.Debug.CompressDumps), len(chunk.Vertices), len(chunk.Faces))
		}
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: obj2nav2 info <file.nav2>")
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	hdr, err := nav2.ParseHeader(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	manifest, err := nav2.ParseManifest(data, hdr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:      %s\n", args[0])
	fmt.Printf("Size:      %d bytes (header says %d)\n", len(data), hdr.FileSize)
	fmt.Printf("Entries:   %d (%d listed)\n", hdr.EntryCount, len(manifest))
	fmt.Printf("Origin:    %.3f %.3f %.3f\n", hdr.Origin[0], hdr.Origin[1], hdr.Origin[2])
	fmt.Printf("Scale:     %d %d %d\n", hdr.Scale[0], hdr.Scale[1], hdr.Scale[2])
	if hdr.NavSystemOffset != 0 {
		fmt.Printf("NavSystem: offset %d\n", hdr.NavSystemOffset)
	}

	fmt.Println()
	fmt.Println("Manifest:")
	for _, e := range manifest {
		fmt.Printf("  %-13s group %-3d offset %-8d length %d\n", e.EntryType(), e.Group, e.Offset, e.Length)
	}

	fmt.Println()
	fmt.Println("Entries:")
	offset := hdr.PayloadOffset
	for i := uint32(0); i < hdr.EntryCount; i++ {
		t, length, group, err := nav2.ParseEntryHeader(data, offset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: entry %d: %v\n", i, err)
			os.Exit(1)
		}
		fmt.Printf("  %-13s group %-3d offset %-8d length %d\n", t, group, offset, length)
		offset += length
	}
}
