package nav2

import (
	"fmt"

	"github.com/Faultbox/nav2conv/pkg/mesh"
)

const (
	segmentChunkPayloadHeader = 16
	segmentChunkRecord        = 12
)

// SegmentChunk summarises one chunk of the partition grid.
type SegmentChunk struct {
	From, To ScaledVertex

	Vertices  int
	Faces     int
	Edges     int
	FirstFace int

	// MaxVertexIndex is the largest 1-based vertex index used by the chunk.
	MaxVertexIndex int
}

// SegmentChunks is the per-chunk statistics entry.
type SegmentChunks struct {
	Group  uint8
	Chunks []SegmentChunk
}

// BuildSegmentChunks summarises every chunk in row-major order. The edge count
// is estimated as 2*faces+1.
func BuildSegmentChunks(grid *mesh.Grid, q Quantizer) (*SegmentChunks, error) {
	s := &SegmentChunks{}

	firstFace := 0
	for ci, chunk := range grid.Chunks() {
		c := SegmentChunk{
			Vertices:       len(chunk.Vertices),
			Faces:          len(chunk.Faces),
			Edges:          2*len(chunk.Faces) + 1,
			FirstFace:      firstFace,
			MaxVertexIndex: chunk.MaxVertexIndex(),
		}

		// An empty chunk keeps zero boxes.
		if len(chunk.Vertices) > 0 {
			var err error
			if c.From, err = q.Quantize(chunk.Extent.Min()); err != nil {
				return nil, fmt.Errorf("chunk %d: %w", ci, err)
			}
			if c.To, err = q.Quantize(chunk.Extent.Max()); err != nil {
				return nil, fmt.Errorf("chunk %d: %w", ci, err)
			}
		}

		s.Chunks = append(s.Chunks, c)
		firstFace += len(chunk.Faces)
	}

	return s, nil
}

func (s *SegmentChunks) validate() error {
	indexBase := 0
	for ci, c := range s.Chunks {
		if err := checkU8(c.Vertices, "chunk %d vertex count", ci); err != nil {
			return err
		}
		if err := checkU8(c.Faces, "chunk %d face count", ci); err != nil {
			return err
		}
		if err := checkU8(3*c.Faces, "chunk %d face corner count", ci); err != nil {
			return err
		}
		if err := checkU8(c.Edges, "chunk %d edge count", ci); err != nil {
			return err
		}
		if err := checkU16(c.FirstFace, "chunk %d first face", ci); err != nil {
			return err
		}
		if err := checkU16(indexBase, "chunk %d vertex index base", ci); err != nil {
			return err
		}
		indexBase += c.MaxVertexIndex
	}
	return nil
}

func (s *SegmentChunks) layout() (entryLayout, error) {
	if err := s.validate(); err != nil {
		return entryLayout{}, err
	}

	records := segmentChunkRecord * uint32(len(s.Chunks))
	return entryLayout{
		payloadHeader: segmentChunkPayloadHeader,
		sections:      []uint32{padded(records), padded(records)},
	}, nil
}

func (s *SegmentChunks) write(enc *encoder, l entryLayout) {
	records := segmentChunkRecord * uint32(len(s.Chunks))

	enc.u32(segmentChunkPayloadHeader)
	enc.u32(l.offset(1))
	enc.u32(l.offset(2))
	enc.u32(uint32(len(s.Chunks)))

	for _, c := range s.Chunks {
		enc.vertex(c.From)
		enc.vertex(c.To)
	}
	enc.pad(records)

	indexBase := 0
	for _, c := range s.Chunks {
		enc.u16(uint16(indexBase))
		enc.u16(uint16(c.FirstFace))
		enc.u16(0)
		enc.u16(0)
		enc.u8(uint8(c.Vertices))
		enc.u8(uint8(c.Faces))
		enc.u8(uint8(3 * c.Faces))
		enc.u8(uint8(c.Edges))
		indexBase += c.MaxVertexIndex
	}
	enc.pad(records)
}
