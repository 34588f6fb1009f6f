package world

import "testing"

func TestChunkPosPackedRoundTrip(t *testing.T) {
	cases := []ChunkPos{
		{0, 0}, {1, 1}, {-1, -1}, {100, -100}, {-100, 100},
		{2147483647, 0}, {0, 2147483647}, {-2147483648, 0}, {0, -2147483648},
	}
	for _, c := range cases {
		got := UnpackChunkPos(c.Packed())
		if got != c {
			t.Errorf("Packed round trip for %v = %v", c, got)
		}
	}
}

func TestRegionSlot(t *testing.T) {
	p := ChunkPos{X: 33, Z: 65}
	// 33 & 31 = 1, 65 & 31 = 1 -> slot = 1 | (1<<5) = 33
	if got := p.RegionSlot(); got != 33 {
		t.Errorf("RegionSlot() = %d, want 33", got)
	}
}

func TestRegion(t *testing.T) {
	cases := []struct {
		p    ChunkPos
		want RegionPos
	}{
		{ChunkPos{0, 0}, RegionPos{0, 0}},
		{ChunkPos{31, 31}, RegionPos{0, 0}},
		{ChunkPos{32, 32}, RegionPos{1, 1}},
		{ChunkPos{-1, -1}, RegionPos{-1, -1}},
		{ChunkPos{-32, -32}, RegionPos{-1, -1}},
		{ChunkPos{-33, 0}, RegionPos{-2, 0}},
	}
	for _, c := range cases {
		if got := c.p.Region(); got != c.want {
			t.Errorf("Region(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestSectionSlotBounds(t *testing.T) {
	cases := []struct {
		y    int16
		want int
	}{
		{-64, 0},
		{-1, 3},
		{0, 4},
		{15, 4},
		{16, 5},
		{319, 23},
	}
	for _, c := range cases {
		p := BlockPos{Y: c.y}
		if got := p.SectionSlot(); got != c.want {
			t.Errorf("SectionSlot(y=%d) = %d, want %d", c.y, got, c.want)
		}
	}
}

func TestBlockPosChunkEuclidean(t *testing.T) {
	cases := []struct {
		x, z int64
		want ChunkPos
	}{
		{0, 0, ChunkPos{0, 0}},
		{15, 15, ChunkPos{0, 0}},
		{16, 0, ChunkPos{1, 0}},
		{-1, -1, ChunkPos{-1, -1}},
		{-16, 0, ChunkPos{-1, 0}},
		{-17, 0, ChunkPos{-2, 0}},
	}
	for _, c := range cases {
		p := BlockPos{X: c.x, Z: c.z}
		if got := p.Chunk(); got != c.want {
			t.Errorf("Chunk(x=%d,z=%d) = %v, want %v", c.x, c.z, got, c.want)
		}
	}
}

func TestLocalOffsetNegative(t *testing.T) {
	p := BlockPos{X: -1, Y: -1, Z: -1}
	x, y, z := p.LocalOffset()
	if x != 15 || y != 15 || z != 15 {
		t.Errorf("LocalOffset() = (%d,%d,%d), want (15,15,15)", x, y, z)
	}
}
