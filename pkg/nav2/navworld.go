package nav2

import (
	"fmt"

	"github.com/tidwall/btree"

	"github.com/Faultbox/nav2conv/pkg/math"
	"github.com/Faultbox/nav2conv/pkg/mesh"
)

const (
	navworldPayloadHeader = 48
	navworldWeightScale   = 10

	// navworldChunkFlags is written once per chunk in subsection 5.
	navworldChunkFlags = 1249
)

// NavworldNode is a waypoint at the midpoint of a face edge. Its index equals
// the index of the edge it was created from.
type NavworldNode struct {
	Index    int
	Position ScaledVertex
	Raw      math.Vec3
	Chunk    int
	Face     int

	// Adjacent holds node indices in link order, without duplicates.
	Adjacent []int

	// ZeroCost is the index of a node at the same quantized position, or -1.
	ZeroCost int
}

// HasZeroCost reports whether the node carries a zero-cost alias.
func (n *NavworldNode) HasZeroCost() bool {
	return n.ZeroCost >= 0
}

// NavworldEdge is an undirected link between two nodes.
type NavworldEdge struct {
	Index  int
	A, B   int
	Chunk  int
	Weight int
}

// Navworld is the fine-grained waypoint graph entry.
type Navworld struct {
	Group uint8
	Nodes []NavworldNode

	NumChunks int

	// EdgeOffsets holds the first node index of every chunk.
	EdgeOffsets []int

	// FaceAdjacency holds, per global face and edge slot, the global index of
	// the face sharing that edge within the chunk, or -1.
	FaceAdjacency [][]int

	// ChunkExtents holds the raw extent of every chunk.
	ChunkExtents []mesh.Extent
}

// edgeKey is an unordered pair of indices.
type edgeKey [2]int

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type faceSlot struct {
	face, slot int
}

// BuildNavworld creates one node per distinct face edge of every chunk, links
// the nodes of each face to one another and fuses coincident nodes with
// zero-cost aliases.
func BuildNavworld(grid *mesh.Grid, q Quantizer) (*Navworld, error) {
	chunks := grid.Chunks()
	n := &Navworld{
		NumChunks:    len(chunks),
		EdgeOffsets:  make([]int, len(chunks)),
		ChunkExtents: make([]mesh.Extent, len(chunks)),
	}

	faceBase := 0
	for ci, chunk := range chunks {
		n.EdgeOffsets[ci] = len(n.Nodes)
		n.ChunkExtents[ci] = chunk.Extent

		if err := n.addChunk(ci, chunk, faceBase, q); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", ci, err)
		}
		faceBase += len(chunk.Faces)
	}

	n.assignZeroCost()
	return n, nil
}

func (n *Navworld) addChunk(ci int, chunk *mesh.Mesh, faceBase int, q Quantizer) error {
	edges := make(map[edgeKey]int)
	seen := make(map[edgeKey][]faceSlot)
	midpoints := make([][]int, len(chunk.Faces))

	for fi, face := range chunk.Faces {
		global := faceBase + fi
		adjacent := make([]int, len(face))
		for i := range adjacent {
			adjacent[i] = -1
		}
		n.FaceAdjacency = append(n.FaceAdjacency, adjacent)

		mids := make([]int, len(face))
		for i := range face {
			a, b := face[i], face[(i+1)%len(face)]
			key := newEdgeKey(a, b)

			idx, ok := edges[key]
			if !ok {
				idx = len(n.Nodes)
				edges[key] = idx

				raw := chunk.Vertex(a).Midpoint(chunk.Vertex(b))
				pos, err := q.Quantize(raw)
				if err != nil {
					return fmt.Errorf("face %d: %w", fi, err)
				}
				n.Nodes = append(n.Nodes, NavworldNode{
					Index:    idx,
					Position: pos,
					Raw:      raw,
					Chunk:    ci,
					Face:     global,
					ZeroCost: -1,
				})
			}
			mids[i] = idx

			// Earlier faces are visited in order so the latest match wins.
			for _, other := range seen[key] {
				if other.face == global {
					continue
				}
				adjacent[i] = other.face
				n.FaceAdjacency[other.face][other.slot] = global
			}
			seen[key] = append(seen[key], faceSlot{face: global, slot: i})
		}
		midpoints[fi] = mids
	}

	linked := make(map[[2]int]struct{})
	link := func(from, to int) {
		if from == to {
			return
		}
		if _, ok := linked[[2]int{from, to}]; ok {
			return
		}
		linked[[2]int{from, to}] = struct{}{}
		n.Nodes[from].Adjacent = append(n.Nodes[from].Adjacent, to)
	}
	for _, mids := range midpoints {
		for i := range mids {
			for j := range mids {
				if i == j {
					continue
				}
				link(mids[i], mids[j])
				link(mids[j], mids[i])
			}
		}
	}

	return nil
}

type aliasGroup struct {
	key   uint64
	nodes []int
}

func aliasGroupLess(a, b aliasGroup) bool {
	return a.key < b.key
}

// assignZeroCost pairs nodes sharing a quantized position. Within a group of
// nodes g0 < g1 < ... < gk every node aliases gk except gk itself, which
// aliases g(k-1).
func (n *Navworld) assignZeroCost() {
	groups := btree.NewBTreeG[aliasGroup](aliasGroupLess)
	for i := range n.Nodes {
		key := n.Nodes[i].Position.key()
		g, _ := groups.Get(aliasGroup{key: key})
		g.key = key
		g.nodes = append(g.nodes, i)
		groups.Set(g)
	}

	groups.Scan(func(g aliasGroup) bool {
		if len(g.nodes) < 2 {
			return true
		}
		last := len(g.nodes) - 1
		for _, idx := range g.nodes[:last] {
			n.Nodes[idx].ZeroCost = g.nodes[last]
		}
		n.Nodes[g.nodes[last]].ZeroCost = g.nodes[last-1]
		return true
	})
}

// Edges derives the undirected edges from node adjacency. Edges are numbered
// in discovery order and belong to the chunk of the node that found them.
func (n *Navworld) Edges() []NavworldEdge {
	edges, _ := n.edgeSet()
	return edges
}

func (n *Navworld) edgeSet() ([]NavworldEdge, map[edgeKey]int) {
	var edges []NavworldEdge
	index := make(map[edgeKey]int)

	for i := range n.Nodes {
		node := &n.Nodes[i]
		for _, adj := range node.Adjacent {
			key := newEdgeKey(node.Index, adj)
			if _, ok := index[key]; ok {
				continue
			}
			other := &n.Nodes[adj]
			weight := node.Raw.Scale(navworldWeightScale).Distance(other.Raw.Scale(navworldWeightScale))

			index[key] = len(edges)
			edges = append(edges, NavworldEdge{
				Index:  len(edges),
				A:      node.Index,
				B:      adj,
				Chunk:  node.Chunk,
				Weight: int(weight),
			})
		}
	}
	return edges, index
}

// adjacencyWords returns the size of a node's subsection 3 record in 16-bit words.
func (n *NavworldNode) adjacencyWords() int {
	words := 2 * len(n.Adjacent)
	if n.HasZeroCost() {
		words++
	}
	return words
}

func (n *Navworld) validate(edges []NavworldEdge) error {
	if err := checkU16(len(n.Nodes), "navworld node count"); err != nil {
		return err
	}
	if err := checkU16(len(edges), "navworld edge count"); err != nil {
		return err
	}
	if err := checkU16(n.NumChunks, "navworld chunk count"); err != nil {
		return err
	}

	offset := 0
	for i := range n.Nodes {
		node := &n.Nodes[i]
		if err := checkU16(offset, "node %d adjacency offset", i); err != nil {
			return err
		}
		if err := checkU8(len(node.Adjacent), "node %d adjacency count", i); err != nil {
			return err
		}
		if err := checkU16(node.Chunk, "node %d chunk", i); err != nil {
			return err
		}
		if err := checkU16(node.Face, "node %d face", i); err != nil {
			return err
		}
		offset += node.adjacencyWords()
	}

	for _, e := range edges {
		if err := checkU16(e.Weight, "edge %d weight", e.Index); err != nil {
			return err
		}
		if err := checkU16(e.Chunk, "edge %d chunk", e.Index); err != nil {
			return err
		}
		if err := checkU8(n.localIndex(e.A), "edge %d local index A", e.Index); err != nil {
			return err
		}
		if err := checkU8(n.localIndex(e.B), "edge %d local index B", e.Index); err != nil {
			return err
		}
	}
	return nil
}

// localIndex returns a node index relative to the first node of its chunk.
func (n *Navworld) localIndex(node int) int {
	return node - n.EdgeOffsets[n.Nodes[node].Chunk]
}

func (n *Navworld) layout() (entryLayout, error) {
	edges, _ := n.edgeSet()
	if err := n.validate(edges); err != nil {
		return entryLayout{}, err
	}

	nodes := uint32(len(n.Nodes))
	var words uint32
	for i := range n.Nodes {
		words += uint32(n.Nodes[i].adjacencyWords())
	}

	// positions, adjacency records, adjacency lists, edges, chunk flags, faces
	return entryLayout{
		payloadHeader: navworldPayloadHeader,
		sections: []uint32{
			padded(6 * nodes),
			padded(6 * nodes),
			padded(2 * words),
			padded(6 * uint32(len(edges))),
			padded(2 * uint32(n.NumChunks)),
			padded(2 * nodes),
		},
	}, nil
}

func (n *Navworld) write(enc *encoder, l entryLayout) {
	edges, index := n.edgeSet()
	nodes := uint32(len(n.Nodes))

	// Payload header. Subsection 3 and 4 offsets are stored swapped.
	enc.u32(navworldPayloadHeader)
	enc.u32(l.offset(1))
	enc.u32(l.offset(3))
	enc.u32(l.offset(2))
	enc.u32(0)
	enc.u32(0)
	enc.u32(l.offset(4))
	enc.u32(0)
	enc.u32(l.offset(5))
	enc.u16(uint16(len(n.Nodes)))
	enc.u16(uint16(len(edges)))
	enc.u16(0)
	enc.u16(0)
	enc.u16(0)
	enc.u16(uint16(n.NumChunks))

	for i := range n.Nodes {
		enc.vertex(n.Nodes[i].Position)
	}
	enc.pad(6 * nodes)

	var offset, words uint32
	for i := range n.Nodes {
		node := &n.Nodes[i]
		enc.u16(uint16(offset))
		enc.u16(uint16(node.Chunk))
		enc.u8(uint8(len(node.Adjacent)))
		if node.HasZeroCost() {
			enc.u8(1)
		} else {
			enc.u8(0)
		}
		offset += uint32(node.adjacencyWords())
	}
	enc.pad(6 * nodes)

	for i := range n.Nodes {
		node := &n.Nodes[i]
		for _, adj := range node.Adjacent {
			enc.u16(uint16(adj))
			enc.u16(uint16(index[newEdgeKey(node.Index, adj)]))
		}
		if node.HasZeroCost() {
			enc.u16(uint16(node.ZeroCost))
		}
		words += uint32(node.adjacencyWords())
	}
	enc.pad(2 * words)

	for _, e := range edges {
		enc.u16(uint16(e.Weight))
		enc.u16(uint16(e.Chunk))
		enc.u8(uint8(n.localIndex(e.A)))
		enc.u8(uint8(n.localIndex(e.B)))
	}
	enc.pad(6 * uint32(len(edges)))

	for i := 0; i < n.NumChunks; i++ {
		enc.u16(navworldChunkFlags)
	}
	enc.pad(2 * uint32(n.NumChunks))

	for i := range n.Nodes {
		enc.u16(uint16(n.Nodes[i].Face))
	}
	enc.pad(2 * nodes)
}
