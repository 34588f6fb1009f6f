package world

import (
	"testing"

	"github.com/go-mclib/server/internal/key"
	"github.com/go-mclib/server/internal/world/section"
)

func stone() section.PlacedBlock { return section.PlacedBlock{Identity: key.Vanilla("stone")} }

func TestChunkSetGetBlockRoundTrip(t *testing.T) {
	c := NewChunk(ChunkPos{X: 0, Z: 0}, nil)
	pos := BlockPos{X: 5, Y: 70, Z: 9}
	c.SetBlock(pos, stone())
	if got := c.GetBlock(pos); !got.Equal(stone()) {
		t.Fatalf("GetBlock = %v, want stone", got)
	}
}

func TestChunkSetBlockOutOfBoundsIgnored(t *testing.T) {
	c := NewChunk(ChunkPos{X: 0, Z: 0}, nil)
	below := BlockPos{X: 0, Y: -65, Z: 0}
	above := BlockPos{X: 0, Y: 320, Z: 0}
	c.SetBlock(below, stone())
	c.SetBlock(above, stone())
	if !c.GetBlock(below).IsAir() || !c.GetBlock(above).IsAir() {
		t.Fatal("out-of-bounds writes must be ignored, reads must return air")
	}
}

func TestChunkEverySectionReachable(t *testing.T) {
	c := NewChunk(ChunkPos{X: 0, Z: 0}, nil)
	for slot := 0; slot < ChunkSections; slot++ {
		y := int16(MinY + slot*16)
		pos := BlockPos{X: 1, Y: y, Z: 1}
		c.SetBlock(pos, stone())
		if c.Sections[slot].IsEmpty() {
			t.Fatalf("section %d (y=%d) should no longer be empty", slot, y)
		}
	}
}

func TestChunkSetBiome(t *testing.T) {
	c := NewChunk(ChunkPos{X: 0, Z: 0}, nil)
	pos := BlockPos{X: 4, Y: 0, Z: 4}
	c.SetBiome(pos, "minecraft:desert")
	slot := pos.SectionSlot()
	got := c.BiomeSections[slot].Get(section.NewBiomeIndex(1, 0, 1))
	if got != "minecraft:desert" {
		t.Fatalf("biome = %q, want desert", got)
	}
}

func TestChunkTickAccruesInhabitedTime(t *testing.T) {
	c := NewChunk(ChunkPos{X: 0, Z: 0}, nil)
	c.Tick(100)
	c.Tick(50)
	if c.InhabitedTime != 150 {
		t.Fatalf("InhabitedTime = %d, want 150", c.InhabitedTime)
	}
}

func TestChunkReinitResetsState(t *testing.T) {
	c := NewChunk(ChunkPos{X: 0, Z: 0}, nil)
	c.SetBlock(BlockPos{X: 0, Y: 0, Z: 0}, stone())
	c.Tick(10)
	c.Reinit(ChunkPos{X: 3, Z: -3})
	if c.Pos != (ChunkPos{X: 3, Z: -3}) {
		t.Fatalf("Pos after Reinit = %v", c.Pos)
	}
	if c.InhabitedTime != 0 {
		t.Error("InhabitedTime must reset")
	}
	for _, s := range c.Sections {
		if !s.IsEmpty() {
			t.Fatal("all sections must be empty after Reinit")
		}
	}
}
