package nav2

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/nav2conv/pkg/math"
)

const (
	navSystemHeaderSize = 48
	navSystemEntryCount = 1
	navSystemCellSize   = 128
	navSystemListMarker = 4
)

// NavSystem is the trailing section listing the populated chunks.
type NavSystem struct {
	Origin   math.Vec3
	Size     math.Vec3
	ChunkIDs []int
}

// NewNavSystem creates the trailing section for the chunks of a segment graph.
func NewNavSystem(q Quantizer, graph *SegmentGraph) *NavSystem {
	return &NavSystem{
		Origin:   q.Origin,
		Size:     q.Size,
		ChunkIDs: graph.ChunkIDs(),
	}
}

func (s *NavSystem) sections() (first, second uint32) {
	first = padded(8 * navSystemEntryCount)
	second = padded(8*navSystemEntryCount + 2*uint32(len(s.ChunkIDs)))
	return first, second
}

// Length returns the byte length of the section.
func (s *NavSystem) Length() uint32 {
	first, second := s.sections()
	return navSystemHeaderSize + first + second
}

func (s *NavSystem) validate() error {
	if s.Size.X < 0 || s.Size.X > stdmath.MaxUint32 {
		return fmt.Errorf("%w: nav system width %g", ErrCapacity, s.Size.X)
	}
	if err := checkU16(len(s.ChunkIDs), "nav system chunk count"); err != nil {
		return err
	}
	for i, id := range s.ChunkIDs {
		if err := checkU16(id, "nav system chunk id %d", i); err != nil {
			return err
		}
	}
	return nil
}

func (s *NavSystem) write(enc *encoder) {
	first, second := s.sections()

	enc.f32(float32(s.Origin.X))
	enc.f32(float32(s.Origin.Y))
	enc.f32(float32(s.Origin.Z))
	enc.f32(0)
	enc.u32(1)
	enc.u32(1)
	enc.u32(1)
	enc.u32(uint32(s.Size.X))
	enc.u32(navSystemCellSize)
	enc.u32(navSystemHeaderSize)
	enc.u32(navSystemHeaderSize + first)
	enc.u32(navSystemHeaderSize + first + second)

	enc.u32(16)
	enc.u16(1)
	enc.u8(0)
	enc.u8(0xFF)
	enc.pad(8 * navSystemEntryCount)

	enc.u8(navSystemListMarker)
	enc.u8(0)
	enc.u16(0)
	enc.u32(uint32(len(s.ChunkIDs)))
	for _, id := range s.ChunkIDs {
		enc.u16(uint16(id))
	}
	enc.pad(8*navSystemEntryCount + 2*uint32(len(s.ChunkIDs)))
}
