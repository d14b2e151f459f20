package nav2

import (
	"fmt"
	stdmath "math"

	"gonum.org/v1/gonum/blas/gonum"

	"github.com/Faultbox/nav2conv/pkg/math"
	"github.com/Faultbox/nav2conv/pkg/mesh"
)

const (
	segmentGraphPayloadHeader = 32
	segmentGraphRecord        = 12
	segmentGraphEdgeRecord    = 6
	segmentGraphWeightDivisor = 100

	// maxEdgeWordOffset is the largest offset the 24-bit record field holds.
	maxEdgeWordOffset = 1<<24 - 1
)

var blasEngine = gonum.Implementation{}

// SegmentGraphChunk is the coarse graph node of one populated chunk.
type SegmentGraphChunk struct {
	ID int

	// Position is the quantized position of the representative navworld node.
	Position ScaledVertex

	// Representative is the index of the navworld node chosen for the chunk.
	Representative int

	// Center is the center of the chunk extent in mesh space. Representatives
	// are compared against it in mesh space; the position written for the
	// chunk is the quantized Position of the representative.
	Center math.Vec3

	// Neighbours holds grid-adjacent chunk ids in left, right, up, down order.
	Neighbours []int
}

// SegmentGraph is the coarse chunk adjacency entry.
type SegmentGraph struct {
	Group      uint8
	Width      int
	Chunks     []SegmentGraphChunk
	TotalEdges int
}

// BuildSegmentGraph picks, for every chunk holding navworld nodes, the node
// closest to the chunk's extent center and links chunks that are neighbours on
// the grid. Chunks appear in the order their first node appears.
func BuildSegmentGraph(nw *Navworld, grid *mesh.Grid) (*SegmentGraph, error) {
	g := &SegmentGraph{Width: grid.Width}
	slot := make(map[int]int)

	for i := range nw.Nodes {
		node := &nw.Nodes[i]
		idx, ok := slot[node.Chunk]
		if !ok {
			if node.Chunk >= len(nw.ChunkExtents) {
				return nil, fmt.Errorf("node %d references chunk %d of %d", i, node.Chunk, len(nw.ChunkExtents))
			}
			slot[node.Chunk] = len(g.Chunks)
			g.Chunks = append(g.Chunks, SegmentGraphChunk{
				ID:             node.Chunk,
				Position:       node.Position,
				Representative: i,
				Center:         nw.ChunkExtents[node.Chunk].Center(),
			})
			continue
		}

		c := &g.Chunks[idx]
		current := nw.Nodes[c.Representative].Raw.Distance(c.Center)
		if node.Raw.Distance(c.Center) < current {
			c.Position = node.Position
			c.Representative = i
		}
	}

	for i := range g.Chunks {
		c := &g.Chunks[i]
		for _, id := range []int{c.ID - 1, c.ID + 1, c.ID - g.Width, c.ID + g.Width} {
			if _, ok := slot[id]; !ok || containsInt(c.Neighbours, id) {
				continue
			}
			c.Neighbours = append(c.Neighbours, id)
			g.TotalEdges++
		}
	}

	return g, nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// ChunkIDs returns the populated chunk ids in graph order.
func (g *SegmentGraph) ChunkIDs() []int {
	ids := make([]int, len(g.Chunks))
	for i, c := range g.Chunks {
		ids[i] = c.ID
	}
	return ids
}

// Weight returns the edge weight between two chunks of the graph: the distance
// of their quantized positions divided by 100, truncated. ok is false when
// either chunk is not part of the graph.
func (g *SegmentGraph) Weight(from, to int) (weight int, ok bool) {
	pos := g.positions()
	a, okA := pos[from]
	b, okB := pos[to]
	if !okA || !okB {
		return 0, false
	}
	return segmentWeight(a, b), true
}

func (g *SegmentGraph) positions() map[int]ScaledVertex {
	pos := make(map[int]ScaledVertex, len(g.Chunks))
	for _, c := range g.Chunks {
		pos[c.ID] = c.Position
	}
	return pos
}

func segmentWeight(a, b ScaledVertex) int {
	return int(quantizedDistance(a, b) / segmentGraphWeightDivisor)
}

func quantizedDistance(a, b ScaledVertex) float64 {
	diff := a.vector()
	blasEngine.Daxpy(len(diff), -1, b.vector(), 1, diff, 1)
	return stdmath.Sqrt(blasEngine.Ddot(len(diff), diff, 1, diff, 1))
}

func (g *SegmentGraph) validate() error {
	if err := checkU16(len(g.Chunks), "segment graph chunk count"); err != nil {
		return err
	}

	offset := 0
	for _, c := range g.Chunks {
		if err := checkU16(c.ID, "segment graph chunk id"); err != nil {
			return err
		}
		if err := checkU8(len(c.Neighbours), "chunk %d neighbour count", c.ID); err != nil {
			return err
		}
		if offset > maxEdgeWordOffset {
			return fmt.Errorf("%w: chunk %d edge offset = %d (max %d)", ErrCapacity, c.ID, offset, maxEdgeWordOffset)
		}
		offset += 3 * len(c.Neighbours)
	}
	return nil
}

func (g *SegmentGraph) layout() (entryLayout, error) {
	if err := g.validate(); err != nil {
		return entryLayout{}, err
	}

	chunks := uint32(len(g.Chunks))
	return entryLayout{
		payloadHeader: segmentGraphPayloadHeader,
		sections: []uint32{
			padded(6 * chunks),
			padded(segmentGraphRecord * chunks),
			padded(segmentGraphEdgeRecord * uint32(g.TotalEdges)),
		},
	}, nil
}

func (g *SegmentGraph) write(enc *encoder, l entryLayout) {
	chunks := uint32(len(g.Chunks))

	enc.u32(segmentGraphPayloadHeader)
	enc.u32(l.offset(1))
	enc.u32(l.offset(2))
	enc.u32(0)
	enc.u32(l.offset(3))
	enc.u32(chunks)
	enc.u16(0)
	enc.u32(uint32(g.TotalEdges))
	enc.u16(0)

	for _, c := range g.Chunks {
		enc.vertex(c.Position)
	}
	enc.pad(6 * chunks)

	// The neighbour count overwrites the high byte of the 24-bit edge offset.
	var offset uint32
	for _, c := range g.Chunks {
		enc.u32(offset&maxEdgeWordOffset | uint32(len(c.Neighbours))<<24)
		enc.u16(0)
		enc.u32(stdmath.MaxUint32)
		enc.u8(0)
		enc.u8(0)
		offset += uint32(3 * len(c.Neighbours))
	}
	enc.pad(segmentGraphRecord * chunks)

	pos := g.positions()
	for _, c := range g.Chunks {
		for _, id := range c.Neighbours {
			enc.u16(uint16(segmentWeight(c.Position, pos[id])))
			enc.u16(uint16(id))
			enc.u8(0)
			enc.u8(0)
		}
	}
	enc.pad(segmentGraphEdgeRecord * uint32(g.TotalEdges))
}
