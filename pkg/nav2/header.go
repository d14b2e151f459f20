package nav2

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic identifies a Nav2 file.
const Magic = 201403242

// generationParams are fixed values carried at the end of every header.
var generationParams = [4]uint32{0x1A2D0845, 0x46D9C1A9, 0xA50A3838, 0xB7A71CCD}

// Header is the fixed 96-byte file header.
type Header struct {
	Magic           uint32
	FileSize        uint32
	PayloadOffset   uint32 // 96 + manifest length
	EntryCount      uint32
	NavSystemOffset uint32 // 0 when absent

	// SplitFile and GridReference are unsupported and always zero.
	SplitFile     uint8
	GridReference [3]uint8

	Section2Offset uint32
	Reserved0      uint32
	Origin         [3]float32
	Reserved1      [2]uint32
	ManifestOffset uint32
	ManifestLength uint32 // 12 * manifest entries, padding excluded
	Reserved2      [2]uint32
	Scale          [3]uint16
	Width          uint16
	Flag           uint8
	Section2Count  uint8
	Reserved3      uint16
	Generation     [4]uint32
}

// ManifestEntry describes one listed entry. SegmentChunk entries are not listed.
type ManifestEntry struct {
	Group     uint8
	Reserved0 uint8
	Reserved1 uint16
	Offset    uint32 // payload start, past the 16-byte entry header
	Type      uint8
	Length    uint16
	Reserved2 uint8
}

// EntryType returns the entry type of the descriptor.
func (m ManifestEntry) EntryType() EntryType {
	return EntryType(m.Type)
}

// ParseHeader decodes the file header.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(data))
	}

	var hdr Header
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if hdr.Magic != Magic {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMagic, hdr.Magic)
	}
	return &hdr, nil
}

// ParseManifest decodes the manifest that follows hdr.
func ParseManifest(data []byte, hdr *Header) ([]ManifestEntry, error) {
	count := int(hdr.ManifestLength / ManifestEntrySize)
	start := int(hdr.ManifestOffset)
	end := start + 4 + count*ManifestEntrySize
	if end > len(data) {
		return nil, fmt.Errorf("%w: manifest ends at %d, have %d bytes", ErrTruncated, end, len(data))
	}

	r := bytes.NewReader(data[start+4 : end])
	entries := make([]ManifestEntry, count)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return entries, nil
}

// ParseEntryHeader decodes the 16-byte entry header at offset.
func ParseEntryHeader(data []byte, offset uint32) (t EntryType, length uint32, group uint8, err error) {
	end := int(offset) + EntryHeaderSize
	if end > len(data) {
		return 0, 0, 0, fmt.Errorf("%w: entry header ends at %d, have %d bytes", ErrTruncated, end, len(data))
	}

	b := data[offset:end]
	t = EntryType(binary.LittleEndian.Uint16(b[0:2]))
	length = binary.LittleEndian.Uint32(b[4:8])
	group = b[12]
	return t, length, group, nil
}
