// Package persist serializes world.Chunk to and from the NBT form
// stored in Anvil region files, bridging internal/world/section's
// (bitsPerCell, palette, words) encoding to internal/nbt's Compound
// tree and back.
package persist

import (
	"bytes"
	"fmt"

	"github.com/go-mclib/server/internal/key"
	"github.com/go-mclib/server/internal/nbt"
	"github.com/go-mclib/server/internal/world"
	"github.com/go-mclib/server/internal/world/section"
)

// NBT list element-type IDs needed for palette lists; internal/nbt
// keeps its own copies of these unexported (it only needs them to
// decode arbitrary lists), so persist, which has to pick an element
// type to *build* a list, carries its own.
const (
	nbtTagString   = 8
	nbtTagCompound = 10
)

// EncodeChunk serializes c to its NBT byte form.
func EncodeChunk(c *world.Chunk) ([]byte, error) {
	root := nbt.NewCompound()
	root.Set("xPos", nbt.Int(c.Pos.X))
	root.Set("zPos", nbt.Int(c.Pos.Z))
	root.Set("DataVersion", nbt.Int(c.DataVersion))
	root.Set("Status", nbt.String(c.Status))
	root.Set("LastUpdate", nbt.Long(c.LastUpdated))
	root.Set("InhabitedTime", nbt.Long(c.InhabitedTime))

	sections := make([]nbt.Tag, 0, world.ChunkSections)
	for i := 0; i < world.ChunkSections; i++ {
		sections = append(sections, encodeSection(i, c))
	}
	root.Set("sections", nbt.List{ElemID: 10, Items: sections})

	var buf bytes.Buffer
	if err := nbt.NewEncoder(&buf).Encode("", root); err != nil {
		return nil, fmt.Errorf("persist: encode chunk: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeSection(slot int, c *world.Chunk) *nbt.Compound {
	s := nbt.NewCompound()
	s.Set("Y", nbt.Byte(int8(slot+world.MinY/16)))

	bits, palette, words := c.Sections[slot].Encode()
	palItems := make([]nbt.Tag, 0, len(palette))
	for _, b := range palette {
		palItems = append(palItems, encodeBlockState(b))
	}
	s.Set("block_states", blockStatesCompound(bits, nbtTagCompound, palItems, words))

	bbits, bpalette, bwords := c.BiomeSections[slot].Encode()
	bpalItems := make([]nbt.Tag, 0, len(bpalette))
	for _, b := range bpalette {
		bpalItems = append(bpalItems, nbt.String(b))
	}
	s.Set("biomes", blockStatesCompound(bbits, nbtTagString, bpalItems, bwords))

	if lights := c.Lights[slot]; lights != nil {
		longs := make(nbt.LongArray, len(lights))
		for i, v := range lights {
			longs[i] = int64(v)
		}
		s.Set("Lighting", longs)
	}
	return s
}

func blockStatesCompound(bitsPerCell int, paletteElemID byte, palette []nbt.Tag, words []uint64) *nbt.Compound {
	c := nbt.NewCompound()
	c.Set("palette", nbt.List{ElemID: paletteElemID, Items: palette})
	if bitsPerCell > 0 {
		// bits_per_cell is persisted explicitly rather than re-derived
		// from the palette size on decode: a section's backing array
		// may use a wider cell than the palette strictly needs (it
		// only ever grows to fit, never shrinks), so re-deriving it
		// would desynchronize from how "data" was actually packed.
		c.Set("bits_per_cell", nbt.Byte(int8(bitsPerCell)))
		longs := make(nbt.LongArray, len(words))
		for i, w := range words {
			longs[i] = int64(w)
		}
		c.Set("data", longs)
	}
	return c
}

// encodeBlockState renders a PlacedBlock as a vanilla-shaped palette
// entry: a compound with "Name" and, when the block deviates from its
// default state, a nested "Properties" compound carrying each state
// value under its own NBT tag type (String/Int/Float/Byte), so the
// state map's (String|i32|f32|bool) typing round-trips exactly rather
// than collapsing to strings, per spec §3/§4.2's persisted palette
// form.
func encodeBlockState(b section.PlacedBlock) *nbt.Compound {
	entry := nbt.NewCompound()
	entry.Set("Name", nbt.String(b.Identity.String()))
	if len(b.State) == 0 {
		return entry
	}
	props := nbt.NewCompound()
	for name, v := range b.State {
		props.Set(name, encodeStateValue(v))
	}
	entry.Set("Properties", props)
	return entry
}

func encodeStateValue(v section.StateValue) nbt.Tag {
	if s, ok := v.AsString(); ok {
		return nbt.String(s)
	}
	if i, ok := v.AsInt32(); ok {
		return nbt.Int(i)
	}
	if f, ok := v.AsFloat32(); ok {
		return nbt.Float(f)
	}
	if b, ok := v.AsBool(); ok {
		if b {
			return nbt.Byte(1)
		}
		return nbt.Byte(0)
	}
	return nbt.String("")
}

// decodeBlockState is encodeBlockState's inverse: it reads a palette
// entry compound back into a PlacedBlock, reconstructing each state
// value's original kind from the NBT tag type it was stored as.
func decodeBlockState(entry *nbt.Compound) section.PlacedBlock {
	nameTag, _ := entry.Get("Name")
	name, _ := nameTag.(nbt.String)
	id, err := key.Parse(string(name))
	if err != nil {
		id = key.Vanilla("air")
	}
	b := section.PlacedBlock{Identity: id}

	propsTag, ok := entry.Get("Properties")
	if !ok {
		return b
	}
	props, ok := propsTag.(*nbt.Compound)
	if !ok {
		return b
	}
	state := make(map[string]section.StateValue, len(props.Names()))
	for _, name := range props.Names() {
		tag, _ := props.Get(name)
		state[name] = decodeStateValue(tag)
	}
	b.State = state
	return b
}

func decodeStateValue(t nbt.Tag) section.StateValue {
	switch v := t.(type) {
	case nbt.String:
		return section.StringValue(string(v))
	case nbt.Int:
		return section.IntValue(int32(v))
	case nbt.Float:
		return section.FloatValue(float32(v))
	case nbt.Byte:
		return section.BoolValue(v != 0)
	default:
		return section.StringValue("")
	}
}

// DecodeChunk rebuilds a world.Chunk from its NBT byte form.
func DecodeChunk(data []byte) (*world.Chunk, error) {
	_, root, err := nbt.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("persist: decode chunk: %w", err)
	}

	xPos, _ := root.Get("xPos")
	zPos, _ := root.Get("zPos")
	pos := world.ChunkPos{X: int32(mustInt(xPos)), Z: int32(mustInt(zPos))}

	c := world.NewChunk(pos, nil)

	if v, ok := root.Get("DataVersion"); ok {
		c.DataVersion = int32(mustInt(v))
	}
	if v, ok := root.Get("Status"); ok {
		if s, ok := v.(nbt.String); ok {
			c.Status = world.Status(s)
		}
	}
	if v, ok := root.Get("LastUpdate"); ok {
		c.LastUpdated = mustLong(v)
	}
	if v, ok := root.Get("InhabitedTime"); ok {
		c.InhabitedTime = mustLong(v)
	}

	sectionsTag, ok := root.Get("sections")
	if !ok {
		return c, nil
	}
	list, ok := sectionsTag.(nbt.List)
	if !ok {
		return nil, fmt.Errorf("persist: sections is not a list")
	}
	for _, item := range list.Items {
		sc, ok := item.(*nbt.Compound)
		if !ok {
			continue
		}
		yTag, _ := sc.Get("Y")
		slot := int(mustInt(yTag)) - world.MinY/16
		if slot < 0 || slot >= world.ChunkSections {
			continue
		}
		if bs, ok := sc.Get("block_states"); ok {
			c.Sections[slot] = decodeBlockSection(bs.(*nbt.Compound))
		}
		if bi, ok := sc.Get("biomes"); ok {
			c.BiomeSections[slot] = decodeBiomeSection(bi.(*nbt.Compound))
		}
		if lt, ok := sc.Get("Lighting"); ok {
			if la, ok := lt.(nbt.LongArray); ok {
				lights := make([]int16, len(la))
				for i, v := range la {
					lights[i] = int16(v)
				}
				c.Lights[slot] = lights
			}
		}
	}
	return c, nil
}

func decodeBlockSection(c *nbt.Compound) *section.Block {
	palTag, _ := c.Get("palette")
	palList, _ := palTag.(nbt.List)
	palette := make([]section.PlacedBlock, 0, len(palList.Items))
	for _, item := range palList.Items {
		entry, ok := item.(*nbt.Compound)
		if !ok {
			palette = append(palette, section.PlacedBlock{Identity: key.Vanilla("air")})
			continue
		}
		palette = append(palette, decodeBlockState(entry))
	}

	dataTag, hasData := c.Get("data")
	if !hasData {
		if len(palette) == 0 {
			return section.NewEmptyBlock()
		}
		return section.NewSingleBlock(palette[0])
	}
	longs, _ := dataTag.(nbt.LongArray)
	words := make([]uint64, len(longs))
	for i, v := range longs {
		words[i] = uint64(v)
	}
	bits := storedBits(c, len(palette))
	return section.DecodeBlock(bits, palette, words)
}

func decodeBiomeSection(c *nbt.Compound) *section.Biome {
	palTag, _ := c.Get("palette")
	palList, _ := palTag.(nbt.List)
	palette := make([]string, 0, len(palList.Items))
	for _, item := range palList.Items {
		s, _ := item.(nbt.String)
		palette = append(palette, string(s))
	}

	dataTag, hasData := c.Get("data")
	if !hasData {
		if len(palette) == 0 {
			return section.NewEmptyBiome()
		}
		return section.NewSingleBiome(palette[0])
	}
	longs, _ := dataTag.(nbt.LongArray)
	words := make([]uint64, len(longs))
	for i, v := range longs {
		words[i] = uint64(v)
	}
	bits := storedBits(c, len(palette))
	return section.DecodeBiome(bits, palette, words)
}

// storedBits reads the explicit bits_per_cell field, falling back to
// the minimum width a palette of this size needs if a hand-authored or
// foreign NBT blob omits it.
func storedBits(c *nbt.Compound, paletteLen int) int {
	if v, ok := c.Get("bits_per_cell"); ok {
		return int(mustInt(v))
	}
	bits := 0
	v := paletteLen - 1
	for v > 0 {
		bits++
		v >>= 1
	}
	if bits < 1 {
		bits = 1
	}
	return bits
}

func mustInt(t nbt.Tag) int64 {
	switch v := t.(type) {
	case nbt.Int:
		return int64(v)
	case nbt.Byte:
		return int64(v)
	case nbt.Short:
		return int64(v)
	case nbt.Long:
		return int64(v)
	default:
		return 0
	}
}

func mustLong(t nbt.Tag) int64 {
	return mustInt(t)
}
