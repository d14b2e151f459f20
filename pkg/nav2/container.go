// Package nav2 builds the navigation structures derived from a partitioned mesh
// and encodes them into the Nav2 binary container.
package nav2

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	stdmath "math"
)

const (
	headerWidth = 127
	headerFlag  = 1
)

// Container is the in-memory Nav2 file: entries in write order plus the
// optional NavSystem tail.
type Container struct {
	Quantizer Quantizer
	Entries   []Entry
	NavSystem *NavSystem
}

// NewContainer creates an empty container using q for the header origin and
// scale.
func NewContainer(q Quantizer) *Container {
	return &Container{Quantizer: q}
}

// Add appends entries in write order.
func (c *Container) Add(entries ...Entry) {
	c.Entries = append(c.Entries, entries...)
}

// manifestCount returns the number of listed entries.
func (c *Container) manifestCount() int {
	n := 0
	for _, e := range c.Entries {
		if e.Type() != EntrySegmentChunk {
			n++
		}
	}
	return n
}

// containerLayout holds every size and offset of an encoded container.
type containerLayout struct {
	entries       []entryLayout
	lengths       []uint32
	manifestCount uint32
	manifestTotal uint32
	navSystem     uint32 // offset, 0 when absent
	fileSize      uint32
}

// payloadStart returns the offset of the first entry.
func (l containerLayout) payloadStart() uint32 {
	return HeaderSize + l.manifestTotal
}

// layout validates the container and computes every length before anything is
// written.
func (c *Container) layout() (containerLayout, error) {
	var segmentChunks, segmentGraphs int
	for _, e := range c.Entries {
		switch e.Type() {
		case EntrySegmentChunk:
			segmentChunks++
		case EntrySegmentGraph:
			segmentGraphs++
		}
	}
	if segmentChunks > 1 || segmentGraphs > 1 {
		return containerLayout{}, fmt.Errorf("%w: %d segment chunk and %d segment graph entries, at most one of each",
			ErrUnsupported, segmentChunks, segmentGraphs)
	}

	l := containerLayout{
		entries:       make([]entryLayout, len(c.Entries)),
		lengths:       make([]uint32, len(c.Entries)),
		manifestCount: uint32(c.manifestCount()),
	}
	l.manifestTotal = padded(4 + ManifestEntrySize*l.manifestCount)

	size := uint64(l.payloadStart())
	for i, e := range c.Entries {
		el, err := layoutOf(e)
		if err != nil {
			return containerLayout{}, fmt.Errorf("entry %d (%s): %w", i, e.Type(), err)
		}
		l.entries[i] = el
		l.lengths[i] = el.length()
		if e.Type() != EntrySegmentChunk {
			if err := checkU16(int(l.lengths[i]), "entry %d (%s) manifest length", i, e.Type()); err != nil {
				return containerLayout{}, err
			}
		}
		size += uint64(l.lengths[i])
	}

	if c.NavSystem != nil {
		if err := c.NavSystem.validate(); err != nil {
			return containerLayout{}, fmt.Errorf("nav system: %w", err)
		}
		l.navSystem = uint32(size)
		size += uint64(c.NavSystem.Length())
	}

	if size > stdmath.MaxUint32 {
		return containerLayout{}, fmt.Errorf("%w: file size %d", ErrCapacity, size)
	}
	l.fileSize = uint32(size)
	return l, nil
}

// Size returns the encoded byte length of the container.
func (c *Container) Size() (uint32, error) {
	l, err := c.layout()
	if err != nil {
		return 0, err
	}
	return l.fileSize, nil
}

// WriteTo encodes the container to w. Validation happens before the first
// byte is written.
func (c *Container) WriteTo(w io.Writer) (int64, error) {
	l, err := c.layout()
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	enc := newEncoder(bw)

	c.writeHeader(enc, l)
	c.writeManifest(enc, l)
	for i, e := range c.Entries {
		if err := writeEntry(enc, e, l.entries[i]); err != nil {
			return enc.n, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	if c.NavSystem != nil {
		c.NavSystem.write(enc)
	}
	if enc.err != nil {
		return enc.n, enc.err
	}

	if enc.n != int64(l.fileSize) {
		return enc.n, fmt.Errorf("%w: wrote %d bytes, layout says %d", ErrLengthMismatch, enc.n, l.fileSize)
	}
	return enc.n, bw.Flush()
}

// Encode returns the encoded container.
func (c *Container) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Container) header(l containerLayout) Header {
	q := c.Quantizer
	return Header{
		Magic:           Magic,
		FileSize:        l.fileSize,
		PayloadOffset:   l.payloadStart(),
		EntryCount:      uint32(len(c.Entries)),
		NavSystemOffset: l.navSystem,
		Origin:          [3]float32{float32(q.Origin.X), float32(q.Origin.Y), float32(q.Origin.Z)},
		ManifestOffset:  HeaderSize,
		ManifestLength:  ManifestEntrySize * l.manifestCount,
		Scale:           [3]uint16{q.Scale.X, q.Scale.Y, q.Scale.Z},
		Width:           headerWidth,
		Flag:            headerFlag,
		Generation:      generationParams,
	}
}

func (c *Container) writeHeader(enc *encoder, l containerLayout) {
	var buf bytes.Buffer
	hdr := c.header(l)
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		enc.err = err
		return
	}
	enc.write(buf.Bytes())
}

// writeManifest lists every entry except SegmentChunk entries. Offsets point
// past each entry header and advance over every entry, listed or not.
func (c *Container) writeManifest(enc *encoder, l containerLayout) {
	enc.u32((l.manifestCount + 2) / 3)

	offset := l.payloadStart() + EntryHeaderSize
	for i, e := range c.Entries {
		if e.Type() != EntrySegmentChunk {
			enc.u8(e.GroupID())
			enc.u8(0)
			enc.u16(0)
			enc.u32(offset)
			enc.u8(uint8(e.Type()))
			enc.u16(uint16(l.lengths[i]))
			enc.u8(0)
		}
		offset += l.lengths[i]
	}
	enc.pad(4 + ManifestEntrySize*l.manifestCount)
}
