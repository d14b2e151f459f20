// Package mesh holds the in-memory polygon mesh and the grid partitioner that
// cuts it into navigation chunks.
package mesh

import (
	"github.com/Faultbox/nav2conv/pkg/math"
)

// Face is an ordered list of 1-based vertex indices into the owning mesh.
type Face []int

// Triangulate fans the face from its first vertex.
// Faces with three or fewer vertices are returned unchanged.
func (f Face) Triangulate() []Face {
	if len(f) <= 3 {
		return []Face{f}
	}
	faces := make([]Face, 0, len(f)-2)
	for i := 0; i < len(f)-2; i++ {
		faces = append(faces, Face{f[0], f[i+1], f[i+2]})
	}
	return faces
}

// Extent is an axis-aligned bounding box.
type Extent struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

// XSize returns the extent along x.
func (e Extent) XSize() float64 { return e.XMax - e.XMin }

// YSize returns the extent along y.
func (e Extent) YSize() float64 { return e.YMax - e.YMin }

// ZSize returns the extent along z.
func (e Extent) ZSize() float64 { return e.ZMax - e.ZMin }

// Min returns the minimum corner.
func (e Extent) Min() math.Vec3 { return math.Vec3{X: e.XMin, Y: e.YMin, Z: e.ZMin} }

// Max returns the maximum corner.
func (e Extent) Max() math.Vec3 { return math.Vec3{X: e.XMax, Y: e.YMax, Z: e.ZMax} }

// Size returns the per-axis sizes.
func (e Extent) Size() math.Vec3 { return math.Vec3{X: e.XSize(), Y: e.YSize(), Z: e.ZSize()} }

// Center returns the geometric center of the box.
func (e Extent) Center() math.Vec3 {
	return math.Vec3{
		X: e.XMax - e.XSize()/2,
		Y: e.YMax - e.YSize()/2,
		Z: e.ZMax - e.ZSize()/2,
	}
}

// Contains reports whether p lies inside the box (inclusive).
func (e Extent) Contains(p math.Vec3) bool {
	return p.X >= e.XMin && p.X <= e.XMax &&
		p.Y >= e.YMin && p.Y <= e.YMax &&
		p.Z >= e.ZMin && p.Z <= e.ZMax
}

// Mesh is a vertex list and the faces that index into it.
type Mesh struct {
	Vertices []math.Vec3
	Faces    []Face
	Extent   Extent

	index map[math.Vec3]int
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// Vertex returns the vertex referenced by a 1-based index.
func (m *Mesh) Vertex(index int) math.Vec3 {
	return m.Vertices[index-1]
}

// AddVertex appends v unconditionally and returns its 1-based index.
func (m *Mesh) AddVertex(v math.Vec3) int {
	m.Vertices = append(m.Vertices, v)
	idx := len(m.Vertices)
	if m.index != nil {
		if _, ok := m.index[v]; !ok {
			m.index[v] = idx
		}
	}
	return idx
}

// AddOrGetVertex returns the 1-based index of a vertex equal to v, adding v
// when no such vertex exists yet.
func (m *Mesh) AddOrGetVertex(v math.Vec3) int {
	if m.index == nil {
		m.index = make(map[math.Vec3]int, len(m.Vertices))
		for i, existing := range m.Vertices {
			if _, ok := m.index[existing]; !ok {
				m.index[existing] = i + 1
			}
		}
	}
	if idx, ok := m.index[v]; ok {
		return idx
	}
	m.Vertices = append(m.Vertices, v)
	m.index[v] = len(m.Vertices)
	return len(m.Vertices)
}

// AddFace appends a face.
func (m *Mesh) AddFace(f Face) {
	m.Faces = append(m.Faces, f)
}

// UpdateExtent recomputes the bounding box from the vertex list.
func (m *Mesh) UpdateExtent() {
	m.Extent = m.ComputeExtent()
}

// ComputeExtent returns the bounding box of the vertex list without storing it.
// An empty mesh has a zero extent.
func (m *Mesh) ComputeExtent() Extent {
	if len(m.Vertices) == 0 {
		return Extent{}
	}

	first := m.Vertices[0]
	ext := Extent{
		XMin: first.X, XMax: first.X,
		YMin: first.Y, YMax: first.Y,
		ZMin: first.Z, ZMax: first.Z,
	}
	for _, v := range m.Vertices[1:] {
		ext.XMin = min(ext.XMin, v.X)
		ext.XMax = max(ext.XMax, v.X)
		ext.YMin = min(ext.YMin, v.Y)
		ext.YMax = max(ext.YMax, v.Y)
		ext.ZMin = min(ext.ZMin, v.Z)
		ext.ZMax = max(ext.ZMax, v.Z)
	}
	return ext
}

// MaxVertexIndex returns the largest 1-based vertex index referenced by any face.
func (m *Mesh) MaxVertexIndex() int {
	maxIndex := 0
	for _, f := range m.Faces {
		for _, idx := range f {
			maxIndex = max(maxIndex, idx)
		}
	}
	return maxIndex
}

// Area returns the summed area of the mesh after fan triangulation.
func (m *Mesh) Area() float64 {
	var area float64
	for _, f := range m.Faces {
		for _, tri := range f.Triangulate() {
			if len(tri) < 3 {
				continue
			}
			area += math.TriangleArea(m.Vertex(tri[0]), m.Vertex(tri[1]), m.Vertex(tri[2]))
		}
	}
	return area
}

// finalize fan-triangulates every face, drops vertices no face references and
// recomputes the extent. Vertex order is preserved.
func (m *Mesh) finalize() *Mesh {
	out := New()
	remap := make([]int, len(m.Vertices)+1)

	for _, f := range m.Faces {
		for _, idx := range f {
			remap[idx] = -1
		}
	}
	for idx := 1; idx < len(remap); idx++ {
		if remap[idx] == -1 {
			remap[idx] = out.AddVertex(m.Vertex(idx))
		}
	}

	for _, f := range m.Faces {
		for _, tri := range f.Triangulate() {
			face := make(Face, len(tri))
			for i, idx := range tri {
				face[i] = remap[idx]
			}
			out.AddFace(face)
		}
	}

	out.UpdateExtent()
	return out
}
