package nav2

import "fmt"

// EntryType is the tag stored in the entry header and the manifest.
type EntryType uint16

// Entry types.
const (
	EntryNavworld     EntryType = 0
	EntryNavmeshChunk EntryType = 1
	EntrySegmentGraph EntryType = 3
	EntrySegmentChunk EntryType = 4
)

// String returns a human-readable entry type name.
func (t EntryType) String() string {
	switch t {
	case EntryNavworld:
		return "Navworld"
	case EntryNavmeshChunk:
		return "NavmeshChunk"
	case EntrySegmentGraph:
		return "SegmentGraph"
	case EntrySegmentChunk:
		return "SegmentChunk"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Entry is one payload of a container. The set of implementations is closed:
// *Navworld, *Navmesh, *SegmentChunks and *SegmentGraph.
type Entry interface {
	Type() EntryType
	GroupID() uint8
	sealed()
}

func (*Navworld) sealed()      {}
func (*Navmesh) sealed()       {}
func (*SegmentChunks) sealed() {}
func (*SegmentGraph) sealed()  {}

// Type returns EntryNavworld.
func (n *Navworld) Type() EntryType { return EntryNavworld }

// Type returns EntryNavmeshChunk.
func (n *Navmesh) Type() EntryType { return EntryNavmeshChunk }

// Type returns EntrySegmentChunk.
func (s *SegmentChunks) Type() EntryType { return EntrySegmentChunk }

// Type returns EntrySegmentGraph.
func (s *SegmentGraph) Type() EntryType { return EntrySegmentGraph }

// GroupID returns the group tag written for the entry.
func (n *Navworld) GroupID() uint8 { return n.Group }

// GroupID returns the group tag written for the entry.
func (n *Navmesh) GroupID() uint8 { return n.Group }

// GroupID returns the group tag written for the entry.
func (s *SegmentChunks) GroupID() uint8 { return s.Group }

// GroupID returns the group tag written for the entry.
func (s *SegmentGraph) GroupID() uint8 { return s.Group }

// layoutOf validates e and returns its layout.
func layoutOf(e Entry) (entryLayout, error) {
	switch e := e.(type) {
	case *Navworld:
		return e.layout()
	case *Navmesh:
		return e.layout()
	case *SegmentChunks:
		return e.layout()
	case *SegmentGraph:
		return e.layout()
	default:
		return entryLayout{}, fmt.Errorf("%w: entry %T", ErrUnsupported, e)
	}
}

// EntryLength returns the padded byte length of e, entry header included.
func EntryLength(e Entry) (uint32, error) {
	l, err := layoutOf(e)
	if err != nil {
		return 0, err
	}
	return l.length(), nil
}

// writeEntry writes e with its entry header and checks that exactly the
// layout's length was emitted.
func writeEntry(enc *encoder, e Entry, l entryLayout) error {
	start := enc.n
	length := l.length()
	enc.entryHeader(e.Type(), length, e.GroupID())

	switch e := e.(type) {
	case *Navworld:
		e.write(enc, l)
	case *Navmesh:
		e.write(enc, l)
	case *SegmentChunks:
		e.write(enc, l)
	case *SegmentGraph:
		e.write(enc, l)
	}
	enc.pad(EntryHeaderSize + l.offset(len(l.sections)))
	if enc.err != nil {
		return enc.err
	}

	if written := enc.n - start; written != int64(length) {
		return fmt.Errorf("%w: %s wrote %d bytes, layout says %d", ErrLengthMismatch, e.Type(), written, length)
	}
	return nil
}
