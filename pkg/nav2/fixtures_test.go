package nav2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/nav2conv/pkg/math"
	"github.com/Faultbox/nav2conv/pkg/mesh"
)

// newMesh builds a mesh from raw vertices and 1-based faces.
func newMesh(vertices []math.Vec3, faces ...mesh.Face) *mesh.Mesh {
	m := mesh.New()
	for _, v := range vertices {
		m.AddVertex(v)
	}
	for _, f := range faces {
		m.AddFace(f)
	}
	m.UpdateExtent()
	return m
}

func unitQuad() *mesh.Mesh {
	return newMesh([]math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 1},
		{X: 0, Y: 0, Z: 1},
	}, mesh.Face{1, 2, 3, 4})
}

func straddlingTriangle() *mesh.Mesh {
	return newMesh([]math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 2},
	}, mesh.Face{1, 2, 3})
}

// cellTriangles places one small triangle inside every cell of a width x
// height lattice of unit cells, so no triangle crosses a chunk boundary.
func cellTriangles(width, height int) *mesh.Mesh {
	m := mesh.New()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx, fz := float64(x), float64(y)
			a := m.AddVertex(math.Vec3{X: fx + 0.25, Y: 0, Z: fz + 0.25})
			b := m.AddVertex(math.Vec3{X: fx + 0.75, Y: 0.1, Z: fz + 0.25})
			c := m.AddVertex(math.Vec3{X: fx + 0.25, Y: 0.2, Z: fz + 0.75})
			m.AddFace(mesh.Face{a, b, c})
		}
	}
	m.UpdateExtent()
	return m
}

// terrain builds a connected height-mapped grid of quads.
func terrain(cols, rows int) *mesh.Mesh {
	m := mesh.New()
	for z := 0; z <= rows; z++ {
		for x := 0; x <= cols; x++ {
			m.AddVertex(math.Vec3{X: float64(x) * 1.5, Y: float64((x*7+z*3)%5) * 0.3, Z: float64(z) * 1.25})
		}
	}
	idx := func(x, z int) int { return z*(cols+1) + x + 1 }
	for z := 0; z < rows; z++ {
		for x := 0; x < cols; x++ {
			m.AddFace(mesh.Face{idx(x, z), idx(x+1, z), idx(x+1, z+1), idx(x, z+1)})
		}
	}
	m.UpdateExtent()
	return m
}

type built struct {
	grid      *mesh.Grid
	quantizer Quantizer
	navmesh   *Navmesh
	chunks    *SegmentChunks
	navworld  *Navworld
	graph     *SegmentGraph
	container *Container
}

// buildAll partitions m and derives every entry in write order.
func buildAll(t *testing.T, m *mesh.Mesh, width, height int) built {
	t.Helper()

	grid, err := mesh.Split(m, width, height)
	require.NoError(t, err)
	q := NewQuantizer(grid.Source)

	var b built
	b.grid, b.quantizer = grid, q

	b.navmesh, err = BuildNavmesh(grid, q)
	require.NoError(t, err)
	b.chunks, err = BuildSegmentChunks(grid, q)
	require.NoError(t, err)
	b.navworld, err = BuildNavworld(grid, q)
	require.NoError(t, err)
	b.graph, err = BuildSegmentGraph(b.navworld, grid)
	require.NoError(t, err)

	b.container = NewContainer(q)
	b.container.Add(b.navmesh, b.chunks, b.navworld, b.graph)
	if len(b.graph.Chunks) > 0 {
		b.container.NavSystem = NewNavSystem(q, b.graph)
	}
	return b
}
