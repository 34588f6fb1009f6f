package gen

import (
	"github.com/go-mclib/server/internal/key"
	"github.com/go-mclib/server/internal/world"
	"github.com/go-mclib/server/internal/world/section"
)

// Layer is one band of the flat generator's vertical stack: height
// blocks of Block, stacked bottom-to-top in settings order.
type Layer struct {
	Block  key.Key
	Height int
}

// FlatSettings mirrors the generator_settings `Flat{...}` variant from
// spec §6 (world entries): biome/features/lakes are carried for
// round-tripping a world's config even though features and lakes are
// themselves out of scope (Non-goals).
type FlatSettings struct {
	Biome             string
	Features          bool
	Lakes             bool
	Layers            []Layer
	StructureOverrides []string
}

// FlatGenerator stacks Layers bottom-up starting at world.MinY, filling
// the remainder of the column with air.
//
// This resolves Open Question (a): the source generator indexes
// Y by the layer's position in the list directly (`y as i16 + y_v`),
// which conflates a 0-based layer index with an absolute Y coordinate
// and ignores MinY entirely — every flat world it produces is built
// from Y=0 upward and anything below Y=0 stays air regardless of the
// configured layers. The correct mapping accumulates height starting
// at world.MinY: the first layer occupies
// [MinY, MinY+h0), the second [MinY+h0, MinY+h0+h1), and so on.
type FlatGenerator struct {
	Settings FlatSettings
}

func NewFlatGenerator(settings FlatSettings) *FlatGenerator {
	return &FlatGenerator{Settings: settings}
}

func (g *FlatGenerator) Generate(c *world.Chunk) {
	y := int16(world.MinY)
	for _, layer := range g.Settings.Layers {
		block := section.PlacedBlock{Identity: layer.Block}
		for h := 0; h < layer.Height; h++ {
			for x := int64(0); x < 16; x++ {
				for z := int64(0); z < 16; z++ {
					pos := world.BlockPos{
						X: int64(c.Pos.X)*16 + x,
						Y: y,
						Z: int64(c.Pos.Z)*16 + z,
					}
					c.SetBlock(pos, block)
				}
			}
			y++
			if y >= world.MaxY {
				return
			}
		}
	}
	c.Status = world.StatusFull
}
