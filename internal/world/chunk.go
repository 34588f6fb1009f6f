package world

import (
	"log"

	"github.com/go-mclib/server/internal/world/section"
)

// Status tracks a chunk's generation progress, matching vanilla's
// coarse-grained pipeline stages closely enough for persistence and
// client sync; the fine-grained noise stages are not modeled since
// noise-based terrain generation is out of scope (spec Non-goals).
type Status string

const (
	StatusEmpty Status = "minecraft:empty"
	StatusFull  Status = "minecraft:full"
)

// Chunk owns 24 stacked block sections and 24 parallel biome sections,
// plus lifecycle metadata, per spec §3/§4.3.
type Chunk struct {
	Pos            ChunkPos
	Sections       [ChunkSections]*section.Block
	BiomeSections  [ChunkSections]*section.Biome
	LastUpdated    int64
	InhabitedTime  int64
	Status         Status
	DataVersion    int32
	Lights         [ChunkSections][]int16 // carried through for bit-exact round trips

	logger *log.Logger
}

// NewChunk allocates a chunk with every section Empty, ready for a
// generator or region-file decode to fill in.
func NewChunk(pos ChunkPos, logger *log.Logger) *Chunk {
	c := &Chunk{Pos: pos, Status: StatusEmpty, logger: logger}
	c.reset()
	return c
}

// reset clears a chunk back to all-Empty sections, used both by NewChunk
// and by the free-list recycling path in chunkmap.
func (c *Chunk) reset() {
	for i := range c.Sections {
		c.Sections[i] = section.NewEmptyBlock()
		c.BiomeSections[i] = section.NewEmptyBiome()
		c.Lights[i] = nil
	}
	c.LastUpdated = 0
	c.InhabitedTime = 0
	c.Status = StatusEmpty
}

// Reinit repurposes an already-allocated Chunk (e.g. pulled from a
// free-list) for a different position, avoiding a fresh allocation on
// every load.
func (c *Chunk) Reinit(pos ChunkPos) {
	c.Pos = pos
	c.reset()
}

// SetBlock writes b at pos, forwarding to the owning section. Positions
// outside the vertical world limits are logged and ignored, per §4.3 —
// a deliberate choice to tolerate slightly out-of-range writes from
// generation code rather than propagate an error.
func (c *Chunk) SetBlock(pos BlockPos, b section.PlacedBlock) {
	if !pos.InBounds() {
		if c.logger != nil {
			c.logger.Printf("chunk %v: set_block out of bounds y=%d, ignored", c.Pos, pos.Y)
		}
		return
	}
	slot := pos.SectionSlot()
	x, y, z := pos.LocalOffset()
	c.Sections[slot].Set(section.NewBlockIndex(x, y, z), b)
}

// GetBlock returns the placed block at pos, or air if pos is out of
// bounds.
func (c *Chunk) GetBlock(pos BlockPos) section.PlacedBlock {
	if !pos.InBounds() {
		return section.Air
	}
	slot := pos.SectionSlot()
	x, y, z := pos.LocalOffset()
	return c.Sections[slot].Get(section.NewBlockIndex(x, y, z))
}

// SetBiome writes a biome id at pos (interpreted at 4-block resolution,
// per the 4x4x4 biome grid).
func (c *Chunk) SetBiome(pos BlockPos, biomeID string) {
	if !pos.InBounds() {
		if c.logger != nil {
			c.logger.Printf("chunk %v: set_biome out of bounds y=%d, ignored", c.Pos, pos.Y)
		}
		return
	}
	slot := pos.SectionSlot()
	x, y, z := pos.LocalOffset()
	c.BiomeSections[slot].Set(section.NewBiomeIndex(x/4, y/4, z/4), biomeID)
}

// Clone returns an independent deep copy of c, sharing no section
// storage, for the chunk map's unload-time snapshot path (spec §4.5:
// "the map clones the current snapshot, marks the handle unloaded, and
// saves the snapshot" when other readers still hold the handle).
func (c *Chunk) Clone() *Chunk {
	out := &Chunk{
		Pos:           c.Pos,
		LastUpdated:   c.LastUpdated,
		InhabitedTime: c.InhabitedTime,
		Status:        c.Status,
		DataVersion:   c.DataVersion,
		logger:        c.logger,
	}
	for i := range c.Sections {
		out.Sections[i] = c.Sections[i].Clone()
		out.BiomeSections[i] = c.BiomeSections[i].Clone()
		if c.Lights[i] != nil {
			out.Lights[i] = append([]int16(nil), c.Lights[i]...)
		}
	}
	return out
}

// Tick runs per-chunk upkeep. The core spec scopes this to bookkeeping
// only (inhabited-time accrual); game-rule-driven ticking (random block
// ticks, fluid spread) belongs to the excluded world-gen/game-rule
// collaborators.
func (c *Chunk) Tick(deltaTicks int64) {
	c.InhabitedTime += deltaTicks
}
