// Package world implements the chunk/section engine: chunk and block
// positions, the palette-indirected section store, chunk assembly, and
// (in its region/chunkmap subpackages) Anvil persistence and the
// concurrent load/unload lifecycle.
package world

// ChunkPos addresses a 16x384x16 chunk column by its 32-bit signed chunk
// coordinates.
type ChunkPos struct {
	X, Z int32
}

// Packed returns the 64-bit map-key representation (z<<32)|(x&0xFFFFFFFF)
// from spec §3.
func (p ChunkPos) Packed() int64 {
	return int64(uint64(uint32(p.Z))<<32 | uint64(uint32(p.X)))
}

// UnpackChunkPos is the inverse of ChunkPos.Packed.
func UnpackChunkPos(packed int64) ChunkPos {
	return ChunkPos{
		X: int32(uint32(packed)),
		Z: int32(uint32(packed >> 32)),
	}
}

// RegionPos addresses a 32x32-chunk Anvil region file.
type RegionPos struct {
	X, Z int32
}

// Region returns the region containing this chunk.
func (p ChunkPos) Region() RegionPos {
	return RegionPos{X: floorDiv32(p.X, 32), Z: floorDiv32(p.Z, 32)}
}

// RegionSlot is the 0..1023 index of this chunk within its region's
// location/timestamp tables: (cx&31) | ((cz&31)<<5).
func (p ChunkPos) RegionSlot() int {
	return int(p.X&31) | int(p.Z&31)<<5
}

// BlockPos addresses a single block. Y is signed to permit -64..319; X
// and Z are int64 to match spec §3 even though vanilla world border
// constrains them to int32 range in practice.
type BlockPos struct {
	X int64
	Y int16
	Z int64
}

// MinY and MaxY bound in-world Y per spec §3 (0 <= y < 384 after
// translating through +64, i.e. -64 <= Y < 320 in absolute terms).
const (
	MinY = -64
	MaxY = 320

	ChunkSections = 24 // (MaxY - MinY) / 16
)

// InBounds reports whether Y falls within the vertical world limits.
func (p BlockPos) InBounds() bool {
	return p.Y >= MinY && p.Y < MaxY
}

// SectionSlot returns the 0..23 index of the section containing this
// block's Y, i.e. y>>4 + 4 (section 0 starts at Y=-64).
func (p BlockPos) SectionSlot() int {
	return int(floorDiv16(int64(p.Y))) - (MinY / 16)
}

// LocalOffset returns the 0..15 intra-section (x, y, z) offsets.
func (p BlockPos) LocalOffset() (x, y, z int) {
	x = int(floorMod(p.X, 16))
	y = int(floorMod(int64(p.Y), 16))
	z = int(floorMod(p.Z, 16))
	return
}

// Chunk returns the ChunkPos containing this block, using Euclidean
// (floor) division so negative coordinates map the way vanilla does
// (Open Question (b) in spec §9: Euclidean, not truncated, modulo).
func (p BlockPos) Chunk() ChunkPos {
	return ChunkPos{X: int32(floorDiv(p.X, 16)), Z: int32(floorDiv(p.Z, 16))}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func floorDiv16(a int64) int64 { return floorDiv(a, 16) }

func floorDiv32(a int32, b int32) int32 {
	return int32(floorDiv(int64(a), int64(b)))
}
