package nav2

import (
	"fmt"
	stdmath "math"

	"github.com/Faultbox/nav2conv/pkg/math"
	"github.com/Faultbox/nav2conv/pkg/mesh"
)

// QuantizeMax is the largest value a quantized axis can hold.
const QuantizeMax = 65535

// ScaledVertex is a position quantized to 16 bits per axis.
type ScaledVertex struct {
	X, Y, Z uint16
}

// String returns the vertex as "x,y,z".
func (v ScaledVertex) String() string {
	return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z)
}

// key packs the vertex into an ordered integer.
func (v ScaledVertex) key() uint64 {
	return uint64(v.X)<<32 | uint64(v.Y)<<16 | uint64(v.Z)
}

// vector returns the vertex as plain float64 components.
func (v ScaledVertex) vector() []float64 {
	return []float64{float64(v.X), float64(v.Y), float64(v.Z)}
}

// Quantizer maps positions into the 16-bit space shared by every entry of one
// container. The zero value is not usable; create one with NewQuantizer.
type Quantizer struct {
	Origin math.Vec3
	Size   math.Vec3
	Scale  ScaledVertex
}

// NewQuantizer derives origin, size and per-axis scale from the extent of the
// unpartitioned mesh.
func NewQuantizer(ext mesh.Extent) Quantizer {
	size := ext.Size()
	return Quantizer{
		Origin: ext.Min(),
		Size:   size,
		Scale: ScaledVertex{
			X: axisScale(size.X),
			Y: axisScale(size.Y),
			Z: axisScale(size.Z),
		},
	}
}

// axisScale returns floor(65535/size), 65535 for a zero-size axis and for any
// size below one.
func axisScale(size float64) uint16 {
	if size == 0 {
		return QuantizeMax
	}
	s := stdmath.Floor(QuantizeMax / size)
	if s > QuantizeMax || s < 0 || stdmath.IsNaN(s) {
		return QuantizeMax
	}
	return uint16(s)
}

// Quantize maps p to |p - origin| * scale per axis, truncated.
func (q Quantizer) Quantize(p math.Vec3) (ScaledVertex, error) {
	x, err := quantizeAxis(p.X, q.Origin.X, q.Scale.X)
	if err != nil {
		return ScaledVertex{}, fmt.Errorf("x of %v: %w", p, err)
	}
	y, err := quantizeAxis(p.Y, q.Origin.Y, q.Scale.Y)
	if err != nil {
		return ScaledVertex{}, fmt.Errorf("y of %v: %w", p, err)
	}
	z, err := quantizeAxis(p.Z, q.Origin.Z, q.Scale.Z)
	if err != nil {
		return ScaledVertex{}, fmt.Errorf("z of %v: %w", p, err)
	}
	return ScaledVertex{X: x, Y: y, Z: z}, nil
}

func quantizeAxis(v, origin float64, scale uint16) (uint16, error) {
	scaled := stdmath.Trunc(stdmath.Abs(v-origin) * float64(scale))
	if stdmath.IsNaN(scaled) || scaled > QuantizeMax {
		return 0, fmt.Errorf("%w: %g", ErrQuantizeRange, scaled)
	}
	return uint16(scaled), nil
}
