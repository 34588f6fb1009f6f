package section

import "github.com/go-mclib/server/internal/bitpack"

const (
	biomeCellsPerSection = 64 // 4x4x4
	defaultBiomeBits     = 3  // accommodates up to 8 biomes before resize
)

// Biome is the 4x4x4-per-section parallel of Block: Empty / Single /
// Full, addressing one biome id per 4x4x4 sub-cube (spec §3).
type Biome struct {
	kind    kind
	single  string
	palette []string
	cells   *bitpack.Array
}

// NewEmptyBiome returns a section with no biome assigned yet.
func NewEmptyBiome() *Biome {
	return &Biome{kind: kindEmpty}
}

// NewSingleBiome returns a section uniformly covered by one biome.
func NewSingleBiome(b string) *Biome {
	return &Biome{kind: kindSingle, single: b}
}

func (s *Biome) Get(idx SectionIndex) string {
	switch s.kind {
	case kindEmpty:
		return ""
	case kindSingle:
		return s.single
	default:
		cell, _ := s.cells.Get(idx.Int())
		return s.palette[cell]
	}
}

func (s *Biome) Set(idx SectionIndex, b string) {
	switch s.kind {
	case kindEmpty:
		if b == "" {
			return
		}
		s.kind = kindSingle
		s.single = b
	case kindSingle:
		if s.single == b {
			return
		}
		s.kind = kindFull
		s.cells = bitpack.New(defaultBiomeBits, biomeCellsPerSection)
		s.palette = []string{s.single, b}
		s.single = ""
		s.cells.Set(idx.Int(), 1)
	case kindFull:
		paletteIdx := -1
		for i, entry := range s.palette {
			if entry == b {
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
}

// Clone returns an independent copy sharing no backing storage with s.
func (s *Biome) Clone() *Biome {
	out := &Biome{kind: s.kind, single: s.single}
	if s.palette != nil {
		out.palette = append([]string(nil), s.palette...)
	}
	if s.cells != nil {
		out.cells = s.cells.Clone()
	}
	return out
}

// Encode mirrors Block.Encode for the biome section's smaller grid.
func (s *Biome) Encode() (bitsPerCell int, palette []string, words []uint64) {
	switch s.kind {
	case kindEmpty:
		return 0, []string{"minecraft:plains"}, nil
	case kindSingle:
		return 0, []string{s.single}, nil
	default:
		return s.cells.BitsPerCell(), s.palette, s.cells.Words()
	}
}

// DecodeBiome rebuilds a Biome section from its encoded form.
func DecodeBiome(bitsPerCell int, palette []string, words []uint64) *Biome {
	if bitsPerCell == 0 {
		if len(palette) == 0 {
			return NewEmptyBiome()
		}
		return NewSingleBiome(palette[0])
	}
	s := &Biome{kind: kindFull, palette: append([]string(nil), palette...)}
	s.cells = bitpack.FromWords(bitsPerCell, biomeCellsPerSection, words)
	return s
}
