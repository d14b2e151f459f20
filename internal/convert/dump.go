package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/nav2conv/pkg/formats"
	"github.com/Faultbox/nav2conv/pkg/mesh"
)

// DumpName returns the file name of the dump of chunk (x, y).
func DumpName(x, y int, compressed bool) string {
	name := fmt.Sprintf("chunk_%d_%d.obj", x, y)
	if compressed {
		name += ".zst"
	}
	return name
}

// dumpChunks writes every chunk of grid as an OBJ file under dir.
func dumpChunks(grid *mesh.Grid, dir string, compress bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			path := filepath.Join(dir, DumpName(x, y, compress))
			if err := dumpChunk(path, grid.At(x, y), compress); err != nil {
				return fmt.Errorf("chunk (%d,%d): %w", x, y, err)
			}
		}
	}
	return nil
}

func dumpChunk(path string, m *mesh.Mesh, compress bool) error {
	if !compress {
		return formats.WriteOBJFile(path, m)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		f.Close()
		return err
	}
	if err := formats.WriteOBJ(enc, m); err != nil {
		enc.Close()
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
