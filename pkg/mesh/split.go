package mesh

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/nav2conv/pkg/math"
)

// Partition errors.
var (
	ErrInvalidGrid   = errors.New("invalid chunk grid")
	ErrDegenerateCut = errors.New("edge crosses split plane without intersecting it")
)

// Grid is a width × height arrangement of chunk meshes.
// Chunk (x, y) has index y*Width + x.
type Grid struct {
	Width  int
	Height int

	// Source is the extent of the mesh before partitioning.
	Source Extent

	cells [][]*Mesh // [x][y]
}

// At returns the chunk at column x, row y.
func (g *Grid) At(x, y int) *Mesh {
	return g.cells[x][y]
}

// Len returns the number of chunks.
func (g *Grid) Len() int {
	return g.Width * g.Height
}

// Index returns the row-major index of chunk (x, y).
func (g *Grid) Index(x, y int) int {
	return y*g.Width + x
}

// Coords returns the column and row of a chunk index.
func (g *Grid) Coords(index int) (x, y int) {
	return index % g.Width, index / g.Width
}

// Chunks returns every chunk in row-major order (rows outer, columns inner).
func (g *Grid) Chunks() []*Mesh {
	chunks := make([]*Mesh, 0, g.Len())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			chunks = append(chunks, g.cells[x][y])
		}
	}
	return chunks
}

// Split cuts src into width × height chunks. Vertical planes on x are applied
// first, then horizontal planes on z inside each vertical slab. Plane positions
// come from the extent of src. Every resulting chunk is fan-triangulated and
// carries its own extent.
func Split(src *Mesh, width, height int) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidGrid, width, height)
	}

	ext := src.ComputeExtent()
	grid := &Grid{
		Width:  width,
		Height: height,
		Source: ext,
		cells:  make([][]*Mesh, width),
	}

	columns := make([]*Mesh, width)
	remainder := src
	for x := 0; x < width-1; x++ {
		boundary := ext.XMin + float64(x+1)*(ext.XSize()/float64(width))
		left, right, err := remainder.clip(math.AxisX, boundary)
		if err != nil {
			return nil, fmt.Errorf("splitting column %d at x=%g: %w", x, boundary, err)
		}
		columns[x] = left
		remainder = right
	}
	columns[width-1] = remainder

	// Slabs are independent; each goroutine owns one grid column.
	var g errgroup.Group
	for x := range columns {
		g.Go(func() error {
			cells := make([]*Mesh, height)
			rest := columns[x]
			for y := 0; y < height-1; y++ {
				boundary := ext.ZMin + float64(y+1)*(ext.ZSize()/float64(height))
				low, high, err := rest.clip(math.AxisZ, boundary)
				if err != nil {
					return fmt.Errorf("splitting chunk (%d,%d) at z=%g: %w", x, y, boundary, err)
				}
				cells[y] = low
				rest = high
			}
			cells[height-1] = rest

			for y := range cells {
				cells[y] = cells[y].finalize()
			}
			grid.cells[x] = cells
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return grid, nil
}

// clip cuts m along the plane axis = boundary. Faces entirely below the plane
// go to low, faces entirely at or above it go to high, and straddling faces are
// cut into one polygon per side.
func (m *Mesh) clip(axis math.Axis, boundary float64) (low, high *Mesh, err error) {
	low, high = New(), New()

	for fi, face := range m.Faces {
		inLow, inHigh := true, true
		for _, idx := range face {
			if m.Vertex(idx).Component(axis) < boundary {
				inHigh = false
			} else {
				inLow = false
			}
		}

		switch {
		case inLow && !inHigh:
			low.copyFace(m, face)
		case inHigh && !inLow:
			high.copyFace(m, face)
		case !inLow && !inHigh:
			if err := m.cutFace(face, axis, boundary, low, high); err != nil {
				return nil, nil, fmt.Errorf("face %d: %w", fi+1, err)
			}
		}
	}

	return low, high, nil
}

// copyFace adds face (indexing into src) to m verbatim.
func (m *Mesh) copyFace(src *Mesh, face Face) {
	out := make(Face, len(face))
	for i, idx := range face {
		out[i] = m.AddOrGetVertex(src.Vertex(idx))
	}
	m.AddFace(out)
}

// cutFace walks the edges of a straddling face and emits the part below the
// plane to low and the part above it to high. The crossing point of each cut
// edge is shared by both sides.
func (m *Mesh) cutFace(face Face, axis math.Axis, boundary float64, low, high *Mesh) error {
	var lowPts, highPts []math.Vec3

	normal := axis.Unit()
	planePoint := normal.Scale(boundary)

	for i := range face {
		v1 := m.Vertex(face[i])
		v2 := m.Vertex(face[(i+1)%len(face)])
		c1, c2 := v1.Component(axis), v2.Component(axis)

		switch {
		case c1 < boundary && c2 < boundary:
			lowPts = append(lowPts, v1, v2)
		case c1 >= boundary && c2 >= boundary:
			highPts = append(highPts, v1, v2)
		default:
			p, ok := math.LinePlaneIntersect(v1.Sub(v2), v1, normal, planePoint)
			if !ok {
				return ErrDegenerateCut
			}
			p = p.WithComponent(axis, boundary)

			if c1 < boundary {
				lowPts = append(lowPts, v1, p)
				highPts = append(highPts, p, v2)
			} else {
				highPts = append(highPts, v1, p)
				lowPts = append(lowPts, p, v2)
			}
		}
	}

	low.addPolygon(lowPts)
	high.addPolygon(highPts)
	return nil
}

// addPolygon adds the distinct points of pts, in first-seen order, as one face.
// Polygons with fewer than three distinct points are dropped.
func (m *Mesh) addPolygon(pts []math.Vec3) {
	seen := make(map[math.Vec3]struct{}, len(pts))
	distinct := make([]math.Vec3, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		distinct = append(distinct, p)
	}
	if len(distinct) < 3 {
		return
	}

	face := make(Face, len(distinct))
	for i, p := range distinct {
		face[i] = m.AddOrGetVertex(p)
	}
	m.AddFace(face)
}
