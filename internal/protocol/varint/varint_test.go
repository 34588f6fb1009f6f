package varint

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestIntRoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 127, 128, 255, 25565, 2147483647, -2147483648}
	for _, v := range cases {
		buf := WriteInt(nil, v)
		if len(buf) != SizeInt(v) {
			t.Errorf("SizeInt(%d) = %d, want %d", v, SizeInt(v), len(buf))
		}
		r := bufio.NewReader(bytes.NewReader(buf))
		got, err := ReadInt(r)
		if err != nil {
			t.Fatalf("ReadInt(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d got %d", v, got)
		}
	}
}

func TestIntTooLong(t *testing.T) {
	buf := bytes.Repeat([]byte{0xFF}, 6)
	r := bufio.NewReader(bytes.NewReader(buf))
	if _, err := ReadInt(r); err == nil {
		t.Fatal("expected VarIntTooLong error")
	}
}

func TestLongRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 9223372036854775807, -9223372036854775808}
	for _, v := range cases {
		buf := WriteLong(nil, v)
		r := bufio.NewReader(bytes.NewReader(buf))
		got, err := ReadLong(r)
		if err != nil {
			t.Fatalf("ReadLong(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d got %d", v, got)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	buf := WriteString(nil, "hello, minecraft")
	r := bufio.NewReader(bytes.NewReader(buf))
	got, err := ReadString(r)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != "hello, minecraft" {
		t.Errorf("got %q", got)
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	id := uuid.New()
	buf := WriteUUID(nil, id)
	got, err := ReadUUID(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("ReadUUID: %v", err)
	}
	if got != id {
		t.Errorf("got %v, want %v", got, id)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	cases := []struct {
		x, z int64
		y    int16
	}{
		{0, 0, 0},
		{1, 2, 3},
		{-1, -1, -1},
		{33554431, 33554431, 2047},
		{-33554432, -33554432, -2048},
	}
	for _, c := range cases {
		packed := EncodePosition(c.x, c.z, c.y)
		x, z, y := DecodePosition(packed)
		if x != c.x || z != c.z || y != c.y {
			t.Errorf("Position(%d,%d,%d) round trip = (%d,%d,%d)", c.x, c.y, c.z, x, y, z)
		}
	}
}

func TestFloatDoubleRoundTrip(t *testing.T) {
	fbuf := WriteFloat(nil, 3.14)
	f, err := ReadFloat(bytes.NewReader(fbuf))
	if err != nil || f != 3.14 {
		t.Errorf("float round trip = %v, %v", f, err)
	}
	dbuf := WriteDouble(nil, 2.71828)
	d, err := ReadDouble(bytes.NewReader(dbuf))
	if err != nil || d != 2.71828 {
		t.Errorf("double round trip = %v, %v", d, err)
	}
}
