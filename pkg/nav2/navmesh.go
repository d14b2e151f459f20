package nav2

import (
	"fmt"

	"github.com/Faultbox/nav2conv/pkg/mesh"
)

const (
	navmeshPayloadHeader = 32
	navmeshFaceRecord    = 16
	navmeshFaceStride    = 8

	// noAdjacentFace marks a boundary edge in the face record.
	noAdjacentFace = 0xFFFF
)

// NavmeshFace is one triangle of the navmesh.
type NavmeshFace struct {
	// Vertices holds 0-based indices local to the face's chunk.
	Vertices []int

	// Adjacent holds, per edge, the index of the face sharing it or -1.
	Adjacent []int

	// Edges holds per-chunk edge indices.
	Edges []int

	// VertexOffset is the index base of the face's chunk.
	VertexOffset int
}

// Navmesh is the navigable triangle mesh entry.
type Navmesh struct {
	Group    uint8
	Vertices []ScaledVertex
	Faces    []NavmeshFace
}

// quantizedEdge is an unordered pair of quantized endpoints.
type quantizedEdge [2]uint64

func newQuantizedEdge(a, b ScaledVertex) quantizedEdge {
	ka, kb := a.key(), b.key()
	if ka > kb {
		ka, kb = kb, ka
	}
	return quantizedEdge{ka, kb}
}

// BuildNavmesh flattens every chunk into one vertex and face list and links
// faces that share a quantized edge anywhere in the mesh.
func BuildNavmesh(grid *mesh.Grid, q Quantizer) (*Navmesh, error) {
	n := &Navmesh{}

	vertexOffset := 0
	for ci, chunk := range grid.Chunks() {
		for _, v := range chunk.Vertices {
			sv, err := q.Quantize(v)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", ci, err)
			}
			n.Vertices = append(n.Vertices, sv)
		}

		edges := make(map[quantizedEdge]int)
		for _, face := range chunk.Faces {
			f := NavmeshFace{
				Vertices:     make([]int, len(face)),
				Adjacent:     make([]int, len(face)),
				Edges:        make([]int, len(face)),
				VertexOffset: vertexOffset,
			}
			for i := range face {
				f.Vertices[i] = face[i] - 1
				f.Adjacent[i] = -1
			}
			for i := range face {
				key := n.faceEdge(&f, i)
				idx, ok := edges[key]
				if !ok {
					idx = len(edges)
					edges[key] = idx
				}
				f.Edges[i] = idx
			}
			n.Faces = append(n.Faces, f)
		}

		vertexOffset += chunk.MaxVertexIndex()
	}

	n.linkFaces()
	return n, nil
}

// faceEdge returns the quantized edge starting at slot i of f.
func (n *Navmesh) faceEdge(f *NavmeshFace, i int) quantizedEdge {
	a := n.Vertices[f.VertexOffset+f.Vertices[i]]
	b := n.Vertices[f.VertexOffset+f.Vertices[(i+1)%len(f.Vertices)]]
	return newQuantizedEdge(a, b)
}

// linkFaces sets every edge's adjacent face to the highest-indexed other face
// sharing it.
func (n *Navmesh) linkFaces() {
	shared := make(map[quantizedEdge][]faceSlot)
	for fi := range n.Faces {
		for i := range n.Faces[fi].Vertices {
			key := n.faceEdge(&n.Faces[fi], i)
			shared[key] = append(shared[key], faceSlot{face: fi, slot: i})
		}
	}

	for _, slots := range shared {
		top, second := -1, -1
		for _, s := range slots {
			switch {
			case s.face > top:
				top, second = s.face, top
			case s.face < top && s.face > second:
				second = s.face
			}
		}
		for _, s := range slots {
			if s.face == top {
				n.Faces[s.face].Adjacent[s.slot] = second
			} else {
				n.Faces[s.face].Adjacent[s.slot] = top
			}
		}
	}
}

func (n *Navmesh) validate() error {
	if err := checkU16(len(n.Faces), "navmesh face count"); err != nil {
		return err
	}
	if err := checkU16(len(n.Vertices), "navmesh vertex count"); err != nil {
		return err
	}

	for fi, f := range n.Faces {
		if len(f.Vertices) != 3 {
			return fmt.Errorf("%w: face %d has %d vertices", ErrNonTriangularFace, fi, len(f.Vertices))
		}
		for i := range f.Vertices {
			if err := checkU8(f.Vertices[i], "face %d vertex %d", fi, i); err != nil {
				return err
			}
			if err := checkU8(f.Edges[i], "face %d edge %d", fi, i); err != nil {
				return err
			}
			if err := checkU16(f.Adjacent[i]+1, "face %d adjacent face %d", fi, i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (n *Navmesh) layout() (entryLayout, error) {
	if err := n.validate(); err != nil {
		return entryLayout{}, err
	}

	faces := uint32(len(n.Faces))
	return entryLayout{
		payloadHeader: navmeshPayloadHeader,
		sections: []uint32{
			padded(6 * uint32(len(n.Vertices))),
			padded(4 * faces),
			padded(navmeshFaceRecord * faces),
		},
	}, nil
}

func (n *Navmesh) write(enc *encoder, l entryLayout) {
	faces := uint32(len(n.Faces))

	enc.u32(navmeshPayloadHeader)
	enc.u32(l.offset(1))
	enc.u32(l.offset(2))
	enc.u32(0)
	enc.zeros(8)
	enc.u16(uint16(len(n.Faces)))
	enc.u16(uint16(len(n.Vertices)))
	enc.u16(0)
	enc.u16(0)

	for _, v := range n.Vertices {
		enc.vertex(v)
	}
	enc.pad(6 * uint32(len(n.Vertices)))

	for i := range n.Faces {
		enc.u32(uint32(i * navmeshFaceStride))
	}
	enc.pad(4 * faces)

	for _, f := range n.Faces {
		for _, adj := range f.Adjacent {
			if adj < 0 {
				enc.u16(noAdjacentFace)
			} else {
				enc.u16(uint16(adj))
			}
		}
		for _, v := range f.Vertices {
			enc.u8(uint8(v))
		}
		for _, e := range f.Edges {
			enc.u8(uint8(e))
		}
		enc.zeros(uint32(navmeshFaceRecord - 4*len(f.Vertices)))
	}
	enc.pad(navmeshFaceRecord * faces)
}
