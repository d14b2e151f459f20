package nav2

import (
	"encoding/binary"
	"fmt"
	"io"
	stdmath "math"
)

// Fixed sizes of the container structures.
const (
	HeaderSize        = 96
	ManifestEntrySize = 12
	EntryHeaderSize   = 16
)

// Padding returns the number of zero bytes that bring n up to a multiple of 16.
func Padding(n uint32) uint32 {
	return (16 - n%16) % 16
}

// padded returns n rounded up to the next multiple of 16.
func padded(n uint32) uint32 {
	return n + Padding(n)
}

// entryLayout is the single source of an entry's size: both the length reported
// in the manifest and the offsets written by the entry come from it.
type entryLayout struct {
	payloadHeader uint32
	sections      []uint32 // padded subsection lengths
}

// offset returns the offset of subsection i relative to the payload header.
// offset(len(sections)) is the end of the payload.
func (l entryLayout) offset(i int) uint32 {
	off := l.payloadHeader
	for _, s := range l.sections[:i] {
		off += s
	}
	return off
}

// length returns the padded entry length including the entry header.
func (l entryLayout) length() uint32 {
	return padded(EntryHeaderSize + l.offset(len(l.sections)))
}

// checkU8 reports a capacity error when v does not fit a byte field. The field
// name is formatted only on failure.
func checkU8(v int, field string, args ...any) error {
	if v < 0 || v > stdmath.MaxUint8 {
		return capacityError(v, stdmath.MaxUint8, field, args)
	}
	return nil
}

// checkU16 reports a capacity error when v does not fit a 16-bit field.
func checkU16(v int, field string, args ...any) error {
	if v < 0 || v > stdmath.MaxUint16 {
		return capacityError(v, stdmath.MaxUint16, field, args)
	}
	return nil
}

func capacityError(v, limit int, field string, args []any) error {
	return fmt.Errorf("%w: %s = %d (max %d)", ErrCapacity, fmt.Sprintf(field, args...), v, limit)
}

// encoder writes little-endian values and remembers the first error.
type encoder struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: w}
}

func (e *encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(p)
	e.n += int64(n)
	e.err = err
}

func (e *encoder) u8(v uint8) {
	e.buf[0] = v
	e.write(e.buf[:1])
}

func (e *encoder) u16(v uint16) {
	binary.LittleEndian.PutUint16(e.buf[:2], v)
	e.write(e.buf[:2])
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4])
}

func (e *encoder) f32(v float32) {
	e.u32(stdmath.Float32bits(v))
}

func (e *encoder) vertex(v ScaledVertex) {
	e.u16(v.X)
	e.u16(v.Y)
	e.u16(v.Z)
}

func (e *encoder) zeros(n uint32) {
	for ; n > 0; n-- {
		e.u8(0)
	}
}

// pad writes the zero padding for a subsection of n bytes.
func (e *encoder) pad(n uint32) {
	e.zeros(Padding(n))
}

// entryHeader writes the common 16-byte entry header.
func (e *encoder) entryHeader(t EntryType, length uint32, group uint8) {
	e.u16(uint16(t))
	e.u16(0)
	e.u32(length)
	e.u32(EntryHeaderSize)
	e.u8(group)
	e.u8(0)
	e.u16(0)
}
