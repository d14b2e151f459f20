package nav2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/nav2conv/pkg/math"
	"github.com/Faultbox/nav2conv/pkg/mesh"
)

func TestBuildSegmentChunks(t *testing.T) {
	b := buildAll(t, straddlingTriangle(), 2, 1)
	chunks := b.chunks.Chunks

	require.Len(t, chunks, 2)

	left, right := chunks[0], chunks[1]
	assert.Equal(t, 4, left.Vertices)
	assert.Equal(t, 2, left.Faces)
	assert.Equal(t, 5, left.Edges)
	assert.Equal(t, 0, left.FirstFace)
	assert.Equal(t, 4, left.MaxVertexIndex)

	assert.Equal(t, 3, right.Vertices)
	assert.Equal(t, 1, right.Faces)
	assert.Equal(t, 3, right.Edges)
	assert.Equal(t, 2, right.FirstFace)

	assert.Equal(t, ScaledVertex{}, left.From)
	// Scale on x is floor(65535/2), so the far edge lands one short of the top.
	assert.Equal(t, uint16(65534), right.To.X)
	assert.Less(t, left.To.X, right.To.X)
}

func TestSegmentChunksEmptyChunk(t *testing.T) {
	m := newMesh([]math.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 0.9, Y: 0, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: 2.1, Y: 0, Z: 0},
		{X: 3, Y: 0, Z: 0},
		{X: 3, Y: 0, Z: 1},
	}, mesh.Face{1, 2, 3}, mesh.Face{4, 5, 6})

	b := buildAll(t, m, 3, 1)
	chunks := b.chunks.Chunks
	require.Len(t, chunks, 3)

	empty := chunks[1]
	assert.Zero(t, empty.Vertices)
	assert.Zero(t, empty.Faces)
	assert.Equal(t, 1, empty.Edges)
	assert.Equal(t, ScaledVertex{}, empty.From)
	assert.Equal(t, ScaledVertex{}, empty.To)

	assert.Equal(t, 1, chunks[2].FirstFace)

	// The empty chunk has no nodes, so it stays out of the coarse graph.
	assert.Equal(t, []int{0, 2}, b.graph.ChunkIDs())
}

func TestSegmentChunksCapacity(t *testing.T) {
	s := &SegmentChunks{Chunks: []SegmentChunk{{Vertices: 50, Faces: 100, Edges: 201}}}

	_, err := EntryLength(s)
	require.ErrorIs(t, err, ErrCapacity)
	assert.Contains(t, err.Error(), "chunk 0")
}

func TestSegmentChunksLayout(t *testing.T) {
	b := buildAll(t, terrain(6, 5), 3, 2)

	n, err := EntryLength(b.chunks)
	require.NoError(t, err)

	records := uint32(segmentChunkRecord * 6)
	assert.Equal(t, padded(EntryHeaderSize+segmentChunkPayloadHeader+2*padded(records)), n)
}
