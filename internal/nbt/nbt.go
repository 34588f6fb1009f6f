// Package nbt implements the binary TAG_Compound form used by chunk and
// player data on disk. It is a deliberately small codec: region-file
// persistence and the chunk engine are the subject of this repository;
// full NBT fidelity (every vanilla tag type, SNBT, schema validation) is
// an excluded external collaborator per spec §1 and is addressed here
// only through the Tag/Compound interface needed to round-trip a chunk.
package nbt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Tag IDs, matching the vanilla binary format.
const (
	tagEnd       = 0
	tagByte      = 1
	tagShort     = 2
	tagInt       = 3
	tagLong      = 4
	tagFloat     = 5
	tagDouble    = 6
	tagByteArray = 7
	tagString    = 8
	tagList      = 9
	tagCompound  = 10
	tagIntArray  = 11
	tagLongArray = 12
)

// Tag is any NBT value this codec understands.
type Tag interface {
	id() byte
}

type (
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	ByteArray []int8
	String    string
	IntArray  []int32
	LongArray []int64
)

func (Byte) id() byte      { return tagByte }
func (Short) id() byte     { return tagShort }
func (Int) id() byte       { return tagInt }
func (Long) id() byte      { return tagLong }
func (Float) id() byte     { return tagFloat }
func (Double) id() byte    { return tagDouble }
func (ByteArray) id() byte { return tagByteArray }
func (String) id() byte    { return tagString }
func (IntArray) id() byte  { return tagIntArray }
func (LongArray) id() byte { return tagLongArray }

// List is a homogeneous sequence of Tags, all sharing elemID.
type List struct {
	ElemID byte
	Items  []Tag
}

func (List) id() byte { return tagList }

// Compound is an ordered set of named fields. Field order is preserved so
// that re-encoding an unmodified Compound is byte-identical.
type Compound struct {
	names []string
	index map[string]int
	vals  []Tag
}

func (*Compound) id() byte { return tagCompound }

// NewCompound returns an empty Compound.
func NewCompound() *Compound {
	return &Compound{index: make(map[string]int)}
}

// Set inserts or replaces a named field, preserving first-insertion order.
func (c *Compound) Set(name string, v Tag) {
	if i, ok := c.index[name]; ok {
		c.vals[i] = v
		return
	}
	c.index[name] = len(c.names)
	c.names = append(c.names, name)
	c.vals = append(c.vals, v)
}

// Get looks up a named field.
func (c *Compound) Get(name string) (Tag, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.vals[i], true
}

// Names returns field names in insertion order.
func (c *Compound) Names() []string { return append([]string(nil), c.names...) }

// Encoder writes the binary TAG_Compound form (big-endian, root tag
// named "").
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder { return &Encoder{w: w} }

// Encode writes a full named root compound: [tagCompound][name][body].
func (e *Encoder) Encode(name string, c *Compound) error {
	if err := e.writeTagHeader(tagCompound, name); err != nil {
		return err
	}
	return e.writeCompoundBody(c)
}

func (e *Encoder) writeTagHeader(id byte, name string) error {
	if _, err := e.w.Write([]byte{id}); err != nil {
		return err
	}
	return e.writeString(name)
}

func (e *Encoder) writeString(s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("nbt: string too long: %d bytes", len(s))
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(s)))
	if _, err := e.w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) writeCompoundBody(c *Compound) error {
	for i, name := range c.names {
		v := c.vals[i]
		if err := e.writeTagHeader(v.id(), name); err != nil {
			return err
		}
		if err := e.writeTagBody(v); err != nil {
			return err
		}
	}
	_, err := e.w.Write([]byte{tagEnd})
	return err
}

func (e *Encoder) writeTagBody(v Tag) error {
	switch t := v.(type) {
	case Byte:
		_, err := e.w.Write([]byte{byte(t)})
		return err
	case Short:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(t))
		_, err := e.w.Write(b[:])
		return err
	case Int:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(t))
		_, err := e.w.Write(b[:])
		return err
	case Long:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(t))
		_, err := e.w.Write(b[:])
		return err
	case Float:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(t)))
		_, err := e.w.Write(b[:])
		return err
	case Double:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], math.Float64bits(float64(t)))
		_, err := e.w.Write(b[:])
		return err
	case ByteArray:
		if err := e.writeInt32(int32(len(t))); err != nil {
			return err
		}
		buf := make([]byte, len(t))
		for i, x := range t {
			buf[i] = byte(x)
		}
		_, err := e.w.Write(buf)
		return err
	case String:
		return e.writeString(string(t))
	case IntArray:
		if err := e.writeInt32(int32(len(t))); err != nil {
			return err
		}
		for _, x := range t {
			if err := e.writeInt32(x); err != nil {
				return err
			}
		}
		return nil
	case LongArray:
		if err := e.writeInt32(int32(len(t))); err != nil {
			return err
		}
		for _, x := range t {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(x))
			if _, err := e.w.Write(b[:]); err != nil {
				return err
			}
		}
		return nil
	case List:
		if _, err := e.w.Write([]byte{t.ElemID}); err != nil {
			return err
		}
		if err := e.writeInt32(int32(len(t.Items))); err != nil {
			return err
		}
		for _, item := range t.Items {
			if err := e.writeTagBody(item); err != nil {
				return err
			}
		}
		return nil
	case *Compound:
		return e.writeCompoundBody(t)
	default:
		return fmt.Errorf("nbt: unsupported tag type %T", v)
	}
}

func (e *Encoder) writeInt32(v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	_, err := e.w.Write(b[:])
	return err
}

// Decoder reads the binary TAG_Compound form written by Encoder.
type Decoder struct {
	r io.Reader
}

func NewDecoder(r io.Reader) *Decoder { return &Decoder{r: r} }

// Decode reads a full named root compound and returns its name and body.
func (d *Decoder) Decode() (name string, c *Compound, err error) {
	id, err := d.readByte()
	if err != nil {
		return "", nil, err
	}
	if id != tagCompound {
		return "", nil, fmt.Errorf("nbt: expected root TAG_Compound, got id %d", id)
	}
	name, err = d.readString()
	if err != nil {
		return "", nil, err
	}
	c, err = d.readCompoundBody()
	return name, c, err
}

func (d *Decoder) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) readString() (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(d.r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (d *Decoder) readInt32() (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func (d *Decoder) readCompoundBody() (*Compound, error) {
	c := NewCompound()
	for {
		id, err := d.readByte()
		if err != nil {
			return nil, err
		}
		if id == tagEnd {
			return c, nil
		}
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		v, err := d.readTagBody(id)
		if err != nil {
			return nil, err
		}
		c.Set(name, v)
	}
}

func (d *Decoder) readTagBody(id byte) (Tag, error) {
	switch id {
	case tagByte:
		b, err := d.readByte()
		return Byte(int8(b)), err
	case tagShort:
		var b [2]byte
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return nil, err
		}
		return Short(int16(binary.BigEndian.Uint16(b[:]))), nil
	case tagInt:
		v, err := d.readInt32()
		return Int(v), err
	case tagLong:
		var b [8]byte
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return nil, err
		}
		return Long(int64(binary.BigEndian.Uint64(b[:]))), nil
	case tagFloat:
		var b [4]byte
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return nil, err
		}
		return Float(math.Float32frombits(binary.BigEndian.Uint32(b[:]))), nil
	case tagDouble:
		var b [8]byte
		if _, err := io.ReadFull(d.r, b[:]); err != nil {
			return nil, err
		}
		return Double(math.Float64frombits(binary.BigEndian.Uint64(b[:]))), nil
	case tagByteArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return nil, err
		}
		out := make(ByteArray, n)
		for i, x := range buf {
			out[i] = int8(x)
		}
		return out, nil
	case tagString:
		s, err := d.readString()
		return String(s), err
	case tagIntArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		out := make(IntArray, n)
		for i := range out {
			v, err := d.readInt32()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case tagLongArray:
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		out := make(LongArray, n)
		for i := range out {
			var b [8]byte
			if _, err := io.ReadFull(d.r, b[:]); err != nil {
				return nil, err
			}
			out[i] = int64(binary.BigEndian.Uint64(b[:]))
		}
		return out, nil
	case tagList:
		elemID, err := d.readByte()
		if err != nil {
			return nil, err
		}
		n, err := d.readInt32()
		if err != nil {
			return nil, err
		}
		items := make([]Tag, 0, n)
		for i := int32(0); i < n; i++ {
			if elemID == tagEnd {
				continue
			}
			item, err := d.readTagBody(elemID)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return List{ElemID: elemID, Items: items}, nil
	case tagCompound:
		return d.readCompoundBody()
	default:
		return nil, fmt.Errorf("nbt: unknown tag id %d", id)
	}
}
