package nav2

import "errors"

// Nav2 build and encode errors.
var (
	ErrCapacity          = errors.New("value exceeds Nav2 field capacity")
	ErrQuantizeRange     = errors.New("position outside quantization range")
	ErrNonTriangularFace = errors.New("navmesh face is not a triangle")
	ErrUnsupported       = errors.New("unsupported Nav2 feature")
	ErrLengthMismatch    = errors.New("entry length does not match bytes written")
)

// Nav2 decode errors.
var (
	ErrInvalidMagic = errors.New("invalid Nav2 magic")
	ErrTruncated    = errors.New("truncated Nav2 data")
)
