package nav2

import (
	"bytes"
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSegmentGraphLattice(t *testing.T) {
	b := buildAll(t, cellTriangles(3, 3), 3, 3)
	g := b.graph

	require.Len(t, g.Chunks, 9)
	assert.Equal(t, 3, g.Width)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, g.ChunkIDs())

	byID := make(map[int]SegmentGraphChunk)
	total := 0
	for _, c := range g.Chunks {
		byID[c.ID] = c
		total += len(c.Neighbours)
	}
	assert.Equal(t, total, g.TotalEdges)

	assert.Equal(t, []int{3, 5, 1, 7}, byID[4].Neighbours)
	assert.ElementsMatch(t, []int{1, 3}, byID[0].Neighbours)
	assert.ElementsMatch(t, []int{5, 7}, byID[8].Neighbours)
}

func TestSegmentGraphRepresentative(t *testing.T) {
	b := buildAll(t, cellTriangles(3, 3), 3, 3)

	// Each chunk holds one triangle; the midpoint of its hypotenuse is the
	// node nearest the chunk center.
	for _, c := range b.graph.Chunks {
		want := b.navworld.EdgeOffsets[c.ID] + 1
		assert.Equal(t, want, c.Representative, "chunk %d", c.ID)
		assert.Equal(t, b.navworld.Nodes[want].Position, c.Position)
		assert.Equal(t, b.grid.Chunks()[c.ID].Extent.Center(), c.Center, "chunk %d", c.ID)
	}
}

func TestSegmentGraphWeight(t *testing.T) {
	b := buildAll(t, cellTriangles(3, 3), 3, 3)
	g := b.graph

	w, ok := g.Weight(0, 1)
	require.True(t, ok)

	a, c := g.Chunks[0].Position, g.Chunks[1].Position
	dx := float64(a.X) - float64(c.X)
	dy := float64(a.Y) - float64(c.Y)
	dz := float64(a.Z) - float64(c.Z)
	assert.Equal(t, int(stdmath.Sqrt(dx*dx+dy*dy+dz*dz)/100), w)
	assert.Positive(t, w)

	_, ok = g.Weight(0, 42)
	assert.False(t, ok)
}

func TestSegmentGraphSingleColumn(t *testing.T) {
	b := buildAll(t, cellTriangles(1, 3), 1, 3)
	g := b.graph

	// With a width of one, left/right and up/down name the same chunks.
	total := 0
	for _, c := range g.Chunks {
		seen := make(map[int]bool)
		for _, id := range c.Neighbours {
			assert.False(t, seen[id], "chunk %d lists %d twice", c.ID, id)
			seen[id] = true
		}
		total += len(c.Neighbours)
	}
	assert.Equal(t, total, g.TotalEdges)
	assert.Equal(t, 4, g.TotalEdges)

	_, err := EntryLength(g)
	require.NoError(t, err)
}

func TestSegmentGraphRecords(t *testing.T) {
	b := buildAll(t, cellTriangles(3, 3), 3, 3)
	g := b.graph

	l, err := layoutOf(g)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeEntry(newEncoder(&buf), g, l))
	payload := buf.Bytes()[EntryHeaderSize:]

	assert.Equal(t, uint32(9), binary.LittleEndian.Uint32(payload[20:24]))
	assert.Equal(t, uint32(g.TotalEdges), binary.LittleEndian.Uint32(payload[26:30]))

	records := payload[l.offset(1):]
	var offset uint32
	for i, c := range g.Chunks {
		rec := records[i*segmentGraphRecord:]
		packed := binary.LittleEndian.Uint32(rec[0:4])
		assert.Equal(t, uint32(len(c.Neighbours)), packed>>24, "chunk %d count", c.ID)
		assert.Equal(t, offset, packed&maxEdgeWordOffset, "chunk %d offset", c.ID)
		assert.Equal(t, uint32(stdmath.MaxUint32), binary.LittleEndian.Uint32(rec[6:10]))
		offset += uint32(3 * len(c.Neighbours))
	}

	first := payload[l.offset(2):]
	w, _ := g.Weight(g.Chunks[0].ID, g.Chunks[0].Neighbours[0])
	assert.Equal(t, uint16(w), binary.LittleEndian.Uint16(first[0:2]))
	assert.Equal(t, uint16(g.Chunks[0].Neighbours[0]), binary.LittleEndian.Uint16(first[2:4]))
}
