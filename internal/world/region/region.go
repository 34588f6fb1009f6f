// Package region implements the Anvil (.mca) region-file codec: a
// 32x32-chunk grid stored as a sector-allocated binary file with
// per-chunk compression framing, per spec §4.4.
package region

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/go-mclib/server/internal/protocol/errs"
)

// Compression identifies the framing of a chunk's compressed payload,
// per spec §4.4 ("Compression = 1 gzip, 2 zlib, 3 uncompressed").
type Compression uint8

const (
	CompressionGzip        Compression = 1
	CompressionZlib        Compression = 2
	CompressionUncompressed Compression = 3
)

// RawChunk is the encoded-but-not-yet-framed payload read from or
// written to a region file: the NBT-serialized chunk bytes plus the
// compression scheme to apply/that was used.
type RawChunk struct {
	Data        []byte
	Compression Compression
}

// Region owns one open .mca file: its in-memory header mirror and the
// backing *os.File. All read/write operations for chunks in this
// region are serialized by mu, matching spec §7's "region-file
// operations within one region are serialized by the region's mutex"
// scheduling constraint.
type Region struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	header *header
	logger *log.Logger
}

// Open opens (creating if absent) the region file at path. existed
// reports whether the file pre-existed, mirroring the spec's
// `open(path, existed) → Region` signature.
func Open(path string, logger *log.Logger) (r *Region, existed bool, err error) {
	_, statErr := os.Stat(path)
	existed = statErr == nil

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, false, errs.IO(err)
	}

	r = &Region{path: path, file: f, logger: logger}

	if !existed {
		r.header = newHeader()
		if _, err := f.Write(r.header.encode()); err != nil {
			f.Close()
			return nil, false, errs.IO(err)
		}
	} else {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, false, errs.IO(err)
		}
		if info.Size() < headerBytes {
			f.Close()
			return nil, false, errs.InvalidChunkHeader("file shorter than header")
		}
		h, err := readHeader(io.NewSectionReader(f, 0, headerBytes))
		if err != nil {
			f.Close()
			return nil, false, err
		}
		r.header = h
	}
	return r, existed, nil
}

// ReadChunk returns the raw chunk at (cx, cz), or (nil, false, nil) if
// the slot is unallocated.
func (r *Region) ReadChunk(cx, cz int32) (*RawChunk, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot := slotIndex(cx, cz)
	loc := r.header.locations[slot]
	if loc.isEmpty() {
		return nil, false, nil
	}

	info, err := r.file.Stat()
	if err != nil {
		return nil, false, errs.IO(err)
	}
	start := int64(loc.offset) * sectorSize
	maxLen := int64(loc.count) * sectorSize
	if start+5 > info.Size() {
		return nil, false, errs.InvalidChunkHeader("chunk offset past end of file")
	}

	sr := io.NewSectionReader(r.file, start, maxLen)
	var lenBuf [4]byte
	if _, err := io.ReadFull(sr, lenBuf[:]); err != nil {
		return nil, false, errs.Wrap(errs.KindInvalidChunkHeader, "truncated length field", err)
	}
	length := beUint32(lenBuf[:])
	if length == 0 {
		return nil, false, errs.InvalidChunkHeader("zero length")
	}
	if int64(length) > maxLen-4 {
		return nil, false, errs.InvalidChunkHeader("length exceeds allocated sectors")
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(sr, payload); err != nil {
		return nil, false, errs.Wrap(errs.KindInvalidChunkHeader, "truncated payload", err)
	}

	compression := Compression(payload[0])
	compressed := payload[1:]

	data, err := decompress(compression, compressed)
	if err != nil {
		return nil, false, err
	}
	return &RawChunk{Data: data, Compression: compression}, true, nil
}

// WriteChunk compresses and stores chunk at (cx, cz), reusing the
// existing sector allocation when the new payload fits and otherwise
// appending to the file's end, per spec §4.4's sector allocation
// policy. The header is updated in memory only; call Save to persist
// it along with the new sector contents.
func (r *Region) WriteChunk(cx, cz int32, chunk RawChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	compressed, err := compress(chunk.Compression, chunk.Data)
	if err != nil {
		return err
	}

	payloadLen := uint32(len(compressed)) + 1 // +1 for compression byte
	totalLen := int64(4) + int64(payloadLen)
	sectorsNeeded := uint8(ceilSectors(totalLen))

	slot := slotIndex(cx, cz)
	loc := r.header.locations[slot]

	var offset uint32
	if !loc.isEmpty() && uint32(sectorsNeeded) <= uint32(loc.count) {
		offset = loc.offset
	} else {
		info, err := r.file.Stat()
		if err != nil {
			return errs.IO(err)
		}
		offset = uint32(info.Size() / sectorSize)
		if offset < headerSectors {
			offset = headerSectors
		}
	}

	buf := make([]byte, 4, totalLen)
	putBeUint32(buf, payloadLen)
	buf = append(buf, byte(chunk.Compression))
	buf = append(buf, compressed...)

	padded := int64(sectorsNeeded) * sectorSize
	if pad := padded - int64(len(buf)); pad > 0 {
		buf = append(buf, make([]byte, pad)...)
	}

	if _, err := r.file.WriteAt(buf, int64(offset)*sectorSize); err != nil {
		return errs.IO(err)
	}

	r.header.locations[slot] = location{offset: offset, count: sectorsNeeded}
	r.header.timestamps[slot] = uint32(time.Now().Unix())
	return nil
}

// Save rewrites the first 8 KiB header to disk, per spec §4.4.
func (r *Region) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.file.WriteAt(r.header.encode(), 0); err != nil {
		return errs.IO(err)
	}
	return r.file.Sync()
}

// Close releases the underlying file handle, used by the chunkmap's
// LRU-evicting region pool.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

func ceilSectors(totalLen int64) int64 {
	return (totalLen + sectorSize - 1) / sectorSize
}

func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidChunkHeader, "gzip", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidChunkHeader, "gzip", err)
		}
		return out, nil
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidChunkHeader, "zlib", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidChunkHeader, "zlib", err)
		}
		return out, nil
	case CompressionUncompressed:
		return data, nil
	default:
		return nil, errs.InvalidChunkHeader(fmt.Sprintf("compression_type %d", c))
	}
}

func compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionGzip:
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, errs.IO(err)
		}
		if err := zw.Close(); err != nil {
			return nil, errs.IO(err)
		}
		return buf.Bytes(), nil
	case CompressionZlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, errs.IO(err)
		}
		if err := zw.Close(); err != nil {
			return nil, errs.IO(err)
		}
		return buf.Bytes(), nil
	case CompressionUncompressed:
		return data, nil
	default:
		return nil, errs.InvalidChunkHeader(fmt.Sprintf("compression_type %d", c))
	}
}

// FileName returns the conventional Anvil region filename for (rx, rz),
// per spec §6's `<world>/region/r.<rx>.<rz>.mca` layout.
func FileName(rx, rz int32) string {
	return fmt.Sprintf("r.%d.%d.mca", rx, rz)
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBeUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
