package region

import (
	"encoding/binary"
	"io"

	"github.com/go-mclib/server/internal/protocol/errs"
)

const (
	sectorSize    = 4096
	headerSectors = 2 // locations table + timestamps table, one sector each
	slotCount     = 1024

	headerBytes = slotCount * 4 * 2 // 4 bytes/location + 4 bytes/timestamp, 1024 each
)

// location is a decoded entry of the locations table: the sector offset
// from file start, and the number of contiguous sectors the chunk
// occupies. Zero value means "unallocated" per spec §4.4.
type location struct {
	offset uint32 // in 4096-byte sectors
	count  uint8
}

func (l location) isEmpty() bool { return l.count == 0 }

// header holds the in-memory mirror of a region file's first 8 KiB,
// synced to disk only by (*Region).save, matching the spec's "after a
// write, header.locations[slot] and header.timestamps[slot] are updated
// in memory; save() rewrites the first 8 KiB" invariant.
type header struct {
	locations  [slotCount]location
	timestamps [slotCount]uint32
}

func newHeader() *header {
	return &header{}
}

// readHeader parses the 8 KiB header from the start of r.
func readHeader(r io.Reader) (*header, error) {
	buf := make([]byte, headerBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errs.Wrap(errs.KindInvalidChunkHeader, "truncated region header", err)
	}
	h := newHeader()
	for i := 0; i < slotCount; i++ {
		off := i * 4
		word := binary.BigEndian.Uint32(buf[off : off+4])
		h.locations[i] = location{offset: word >> 8, count: uint8(word)}
	}
	base := slotCount * 4
	for i := 0; i < slotCount; i++ {
		off := base + i*4
		h.timestamps[i] = binary.BigEndian.Uint32(buf[off : off+4])
	}
	return h, nil
}

// encode serializes the header back to its 8 KiB on-disk form.
func (h *header) encode() []byte {
	buf := make([]byte, headerBytes)
	for i := 0; i < slotCount; i++ {
		off := i * 4
		word := h.locations[i].offset<<8 | uint32(h.locations[i].count)
		binary.BigEndian.PutUint32(buf[off:off+4], word)
	}
	base := slotCount * 4
	for i := 0; i < slotCount; i++ {
		off := base + i*4
		binary.BigEndian.PutUint32(buf[off:off+4], h.timestamps[i])
	}
	return buf
}

// slotIndex is the location/timestamp table index for chunk (cx, cz)
// within its region: (cx&31) | ((cz&31)<<5), per spec §4.4/§3.
func slotIndex(cx, cz int32) int {
	return int(cx&31) | int(cz&31)<<5
}
