// Package varint implements the wire-format primitives shared by every
// packet: VarInt, VarLong, length-prefixed strings, UUIDs, and the
// packed block-position encoding, per spec §4.6/§6.
package varint

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/google/uuid"

	"github.com/go-mclib/server/internal/protocol/errs"
)

const (
	maxVarIntBytes  = 5
	maxVarLongBytes = 10
)

// ReadInt decodes a VarInt from r, matching the teacher's
// chunk_parser.go byte-at-a-time shift/mask loop, generalized to any
// io.Reader instead of an in-memory cursor.
func ReadInt(r io.ByteReader) (int32, error) {
	var result int32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int32(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 35 {
			return 0, errs.New(errs.KindVarIntTooLong, "var_int")
		}
	}
	return result, nil
}

// WriteInt appends the VarInt encoding of v to buf and returns it.
func WriteInt(buf []byte, v int32) []byte {
	uv := uint32(v)
	for uv >= 0x80 {
		buf = append(buf, byte(uv&0x7F|0x80))
		uv >>= 7
	}
	return append(buf, byte(uv))
}

// SizeInt returns the number of bytes WriteInt would emit for v.
func SizeInt(v int32) int {
	uv := uint32(v)
	n := 1
	for uv >= 0x80 {
		uv >>= 7
		n++
	}
	return n
}

// ReadLong decodes a VarLong, the 64-bit counterpart of ReadInt.
func ReadLong(r io.ByteReader) (int64, error) {
	var result int64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= int64(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 70 {
			return 0, errs.New(errs.KindVarIntTooLong, "var_long")
		}
	}
	return result, nil
}

// WriteLong appends the VarLong encoding of v to buf.
func WriteLong(buf []byte, v int64) []byte {
	uv := uint64(v)
	for uv >= 0x80 {
		buf = append(buf, byte(uv&0x7F|0x80))
		uv >>= 7
	}
	return append(buf, byte(uv))
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func ReadString(r interface {
	io.ByteReader
	io.Reader
}) (string, error) {
	n, err := ReadInt(r)
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", errs.New(errs.KindInvalidData, "negative string length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteString appends a VarInt-length-prefixed string to buf.
func WriteString(buf []byte, s string) []byte {
	buf = WriteInt(buf, int32(len(s)))
	return append(buf, s...)
}

// ReadUUID reads the 16 big-endian bytes Minecraft uses for a UUID
// field, via google/uuid (grounded in the dragonfly family's use of the
// same library for entity and player UUIDs).
func ReadUUID(r io.Reader) (uuid.UUID, error) {
	var buf [16]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return uuid.UUID{}, err
	}
	return uuid.FromBytes(buf[:])
}

// WriteUUID appends the 16 raw bytes of id to buf.
func WriteUUID(buf []byte, id uuid.UUID) []byte {
	b, _ := id.MarshalBinary()
	return append(buf, b...)
}

// Position packs a block position into the 64-bit form used by
// block-targeted packets (x: 26 bits, z: 26 bits, y: 12 bits, all
// signed two's complement, matching the 1.14+ layout).
func EncodePosition(x, z int64, y int16) int64 {
	return ((x & 0x3FFFFFF) << 38) | ((z & 0x3FFFFFF) << 12) | (int64(y) & 0xFFF)
}

// DecodePosition is the inverse of EncodePosition.
func DecodePosition(packed int64) (x, z int64, y int16) {
	x = signExtend(packed>>38, 26)
	z = signExtend(packed>>12, 26)
	y = int16(signExtend(packed, 12))
	return
}

func signExtend(v int64, bits uint) int64 {
	v &= (1 << bits) - 1
	if v >= 1<<(bits-1) {
		v -= 1 << bits
	}
	return v
}

// ReadFloat/ReadDouble/WriteFloat/WriteDouble round out the
// fixed-width numeric fields packets need alongside VarInt/VarLong.
func ReadFloat(r io.Reader) (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(buf[:])), nil
}

func WriteFloat(buf []byte, v float32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return append(buf, b[:]...)
}

func ReadDouble(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

func WriteDouble(buf []byte, v float64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return append(buf, b[:]...)
}
