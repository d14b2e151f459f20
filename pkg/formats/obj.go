// Package formats provides the Wavefront OBJ reader and writer used to load
// source meshes and dump partitioned chunks.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/nav2conv/pkg/math"
	"github.com/Faultbox/nav2conv/pkg/mesh"
)

// OBJ format errors.
var (
	ErrMalformedVertex = errors.New("malformed vertex record")
	ErrMalformedFace   = errors.New("malformed face record")
	ErrFaceIndexRange  = errors.New("face index out of range")
)

// ParseOBJ reads `v` and `f` records into a mesh. Texture and normal
// sub-indices (`f 1/2/3 ...`) are ignored and negative indices are resolved
// relative to the vertices read so far. Any other record is skipped.
func ParseOBJ(r io.Reader) (*mesh.Mesh, error) {
	m := mesh.New()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.AddVertex(v)
		case "f":
			f, err := parseFace(fields[1:], len(m.Vertices))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			m.AddFace(f)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	m.UpdateExtent()
	return m, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()

	return ParseOBJ(f)
}

func parseVertex(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("%w: expected 3 coordinates, found %d", ErrMalformedVertex, len(fields))
	}

	var coords [3]float64
	for i := range coords {
		c, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("%w: coordinate %q", ErrMalformedVertex, fields[i])
		}
		coords[i] = c
	}
	return math.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

func parseFace(fields []string, vertexCount int) (mesh.Face, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: expected at least 3 vertices, found %d", ErrMalformedFace, len(fields))
	}

	face := make(mesh.Face, len(fields))
	for i, field := range fields {
		ref, _, _ := strings.Cut(field, "/")
		idx, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex reference %q", ErrMalformedFace, field)
		}

		if idx < 0 {
			idx = vertexCount + idx + 1
		}
		if idx < 1 || idx > vertexCount {
			return nil, fmt.Errorf("%w: %s (have %d vertices)", ErrFaceIndexRange, ref, vertexCount)
		}
		face[i] = idx
	}
	return face, nil
}

// WriteOBJ writes the vertices of m followed by its faces.
func WriteOBJ(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
	}
	for _, f := range m.Faces {
		bw.WriteString("f")
		for _, idx := range f {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(idx))
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// WriteOBJFile writes m to path, replacing any existing file.
func WriteOBJFile(path string, m *mesh.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	if err := WriteOBJ(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
