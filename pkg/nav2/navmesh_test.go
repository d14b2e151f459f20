package nav2

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNavmeshQuad(t *testing.T) {
	b := buildAll(t, unitQuad(), 1, 1)
	nm := b.navmesh

	require.Len(t, nm.Vertices, 4)
	assert.Equal(t, ScaledVertex{}, nm.Vertices[0])
	assert.Equal(t, ScaledVertex{X: QuantizeMax, Y: 0, Z: QuantizeMax}, nm.Vertices[2])

	require.Len(t, nm.Faces, 2)
	assert.Equal(t, []int{0, 1, 2}, nm.Faces[0].Vertices)
	assert.Equal(t, []int{0, 2, 3}, nm.Faces[1].Vertices)

	assert.Equal(t, []int{-1, -1, 1}, nm.Faces[0].Adjacent)
	assert.Equal(t, []int{0, -1, -1}, nm.Faces[1].Adjacent)

	assert.Equal(t, []int{0, 1, 2}, nm.Faces[0].Edges)
	assert.Equal(t, []int{2, 3, 4}, nm.Faces[1].Edges)
}

func TestBuildNavmeshAcrossChunks(t *testing.T) {
	b := buildAll(t, straddlingTriangle(), 2, 1)
	nm := b.navmesh

	// The left chunk holds a quad split into two triangles, the right one a
	// single triangle.
	require.Len(t, nm.Faces, 3)
	require.Len(t, nm.Vertices, 7)
	assert.Equal(t, 0, nm.Faces[1].VertexOffset)
	assert.Equal(t, 4, nm.Faces[2].VertexOffset)

	assert.Equal(t, []int{-1, 2, 1}, nm.Faces[0].Adjacent)
	assert.Equal(t, 0, nm.Faces[1].Adjacent[0])
	assert.Equal(t, 0, nm.Faces[2].Adjacent[2], "cut edge links back across the boundary")
}

func TestNavmeshAdjacencySymmetric(t *testing.T) {
	b := buildAll(t, terrain(6, 5), 3, 2)
	nm := b.navmesh

	for fi, f := range nm.Faces {
		for slot, adj := range f.Adjacent {
			if adj < 0 {
				continue
			}
			assert.NotEqual(t, fi, adj)
			assert.Contains(t, nm.Faces[adj].Adjacent, fi, "face %d slot %d -> %d", fi, slot, adj)
		}
	}
}

func TestNavmeshRejectsNonTriangles(t *testing.T) {
	nm := &Navmesh{
		Vertices: make([]ScaledVertex, 4),
		Faces: []NavmeshFace{{
			Vertices: []int{0, 1, 2, 3},
			Adjacent: []int{-1, -1, -1, -1},
			Edges:    []int{0, 1, 2, 3},
		}},
	}

	_, err := EntryLength(nm)
	assert.ErrorIs(t, err, ErrNonTriangularFace)
}

func TestNavmeshFaceRecord(t *testing.T) {
	b := buildAll(t, unitQuad(), 1, 1)
	l, err := layoutOf(b.navmesh)
	require.NoError(t, err)

	var buf bytes.Buffer
	enc := newEncoder(&buf)
	require.NoError(t, writeEntry(enc, b.navmesh, l))
	data := buf.Bytes()

	payload := data[EntryHeaderSize:]
	assert.Equal(t, uint32(navmeshPayloadHeader), binary.LittleEndian.Uint32(payload[0:4]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(payload[24:26]), "face count")
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(payload[26:28]), "vertex count")

	// Second face record: adjacency 0, none, none; vertices 0 2 3; edges 2 3 4.
	rec := payload[l.offset(2)+navmeshFaceRecord:]
	want := []byte{
		0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF,
		0, 2, 3,
		2, 3, 4,
		0, 0, 0, 0,
	}
	assert.Equal(t, want, rec[:navmeshFaceRecord])

	offsets := payload[l.offset(1):]
	assert.Equal(t, uint32(navmeshFaceStride), binary.LittleEndian.Uint32(offsets[4:8]))
}
