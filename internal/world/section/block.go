package section

import "github.com/go-mclib/server/internal/bitpack"

const (
	cellsPerSection = 4096 // 16x16x16
	defaultBits     = 5    // accommodates up to 32 palette entries
)

// kind tags which representation a Block section is currently in.
type kind uint8

const (
	kindEmpty kind = iota
	kindSingle
	kindFull
)

// Block is a 16x16x16 cube of placed blocks, stored as Empty / Single /
// Full per spec §3/§4.2. The zero value is Empty.
type Block struct {
	kind    kind
	single  PlacedBlock
	palette []PlacedBlock
	cells   *bitpack.Array
}

// NewEmptyBlock returns a section with no blocks placed (semantically
// all air).
func NewEmptyBlock() *Block {
	return &Block{kind: kindEmpty}
}

// NewSingleBlock returns a section uniformly filled with b.
func NewSingleBlock(b PlacedBlock) *Block {
	if b.IsAir() {
		return NewEmptyBlock()
	}
	return &Block{kind: kindSingle, single: b}
}

// IsEmpty reports whether the section is in the Empty representation.
func (s *Block) IsEmpty() bool { return s.kind == kindEmpty }

// Get returns the placed block at idx.
func (s *Block) Get(idx SectionIndex) PlacedBlock {
	switch s.kind {
	case kindEmpty:
		return Air
	case kindSingle:
		return s.single
	default:
		cell, _ := s.cells.Get(idx.Int())
		return s.palette[cell]
	}
}

// Set writes b at idx, performing the Empty->Single->Full promotions
// specified in §4.2.
func (s *Block) Set(idx SectionIndex, b PlacedBlock) {
	switch s.kind {
	case kindEmpty:
		if b.IsAir() {
			return
		}
		s.kind = kindSingle
		s.single = b
	case kindSingle:
		if s.single.Equal(b) {
			return
		}
		s.promoteToFull(s.single, b, idx)
	case kindFull:
		s.setFull(idx, b)
	}
}

func (s *Block) promoteToFull(existing, incoming PlacedBlock, idx SectionIndex) {
	s.kind = kindFull
	s.cells = bitpack.New(defaultBits, cellsPerSection)
	s.palette = []PlacedBlock{existing, incoming}
	s.single = PlacedBlock{}
	s.cells.Set(idx.Int(), 1)
}

func (s *Block) setFull(idx SectionIndex, b PlacedBlock) {
	paletteIdx := -1
	for i, entry := range s.palette {
		if entry.Equal(b) {
			paletteIdx = i
			break
		}
	}
	if paletteIdx == -1 {
		paletteIdx = len(s.palette)
		s.palette = append(s.palette, b)
		if needed := bitpack.BitsFor(len(s.palette)); needed > s.cells.BitsPerCell() {
			s.cells = s.cells.Resize(needed)
		}
	}
	s.cells.Set(idx.Int(), uint32(paletteIdx))
}

// Clone returns an independent copy sharing no backing storage with s,
// used when a chunk handle must be snapshotted for a concurrent save.
func (s *Block) Clone() *Block {
	out := &Block{kind: s.kind, single: s.single}
	if s.palette != nil {
		out.palette = append([]PlacedBlock(nil), s.palette...)
	}
	if s.cells != nil {
		out.cells = s.cells.Clone()
	}
	return out
}

// Palette returns the section's current palette entries. For Empty it is
// a single-element air palette; for Single it is a single-element slice.
func (s *Block) Palette() []PlacedBlock {
	switch s.kind {
	case kindEmpty:
		return []PlacedBlock{Air}
	case kindSingle:
		return []PlacedBlock{s.single}
	default:
		return s.palette
	}
}

// BitsPerCell returns the compact array's current cell width, or 0 for
// Empty/Single (no array backs those representations).
func (s *Block) BitsPerCell() int {
	if s.kind != kindFull {
		return 0
	}
	return s.cells.BitsPerCell()
}

// Cells exposes the raw packed words for Full sections (nil otherwise),
// for encoding to the on-wire/on-disk form.
func (s *Block) Cells() *bitpack.Array {
	if s.kind != kindFull {
		return nil
	}
	return s.cells
}

// Encode returns (bitsPerCell, palette, words) per §4.2's
// "(bits_per_cell, palette_names_with_properties, data_words)" form.
// For Empty, bitsPerCell is 0 and palette holds the air block.
// For Single, bitsPerCell is 0 and palette holds the one occupant.
func (s *Block) Encode() (bitsPerCell int, palette []PlacedBlock, words []uint64) {
	switch s.kind {
	case kindEmpty:
		return 0, []PlacedBlock{Air}, nil
	case kindSingle:
		return 0, []PlacedBlock{s.single}, nil
	default:
		return s.cells.BitsPerCell(), s.palette, s.cells.Words()
	}
}

// DecodeBlock rebuilds a Block section from its on-wire/on-disk form.
// Absent data (bitsPerCell == 0) means a single palette entry fills the
// section, or Empty if that entry is air.
func DecodeBlock(bitsPerCell int, palette []PlacedBlock, words []uint64) *Block {
	if bitsPerCell == 0 {
		if len(palette) == 0 || palette[0].IsAir() {
			return NewEmptyBlock()
		}
		return NewSingleBlock(palette[0])
	}
	s := &Block{kind: kindFull, palette: append([]PlacedBlock(nil), palette...)}
	s.cells = bitpack.FromWords(bitsPerCell, cellsPerSection, words)
	return s
}
