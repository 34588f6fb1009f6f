package section

import "testing"

func TestBiomePromotionAndRoundTrip(t *testing.T) {
	s := NewEmptyBiome()
	p00 := NewBiomeIndex(0, 0, 0)
	p01 := NewBiomeIndex(0, 0, 1)

	s.Set(p00, "minecraft:plains")
	if got := s.Get(p00); got != "minecraft:plains" {
		t.Fatalf("Get = %q, want plains", got)
	}

	s.Set(p01, "minecraft:desert")
	if got := s.Get(p00); got != "minecraft:plains" {
		t.Errorf("Get(p00) after promotion = %q, want plains", got)
	}
	if got := s.Get(p01); got != "minecraft:desert" {
		t.Errorf("Get(p01) after promotion = %q, want desert", got)
	}

	bits, palette, words := s.Encode()
	decoded := DecodeBiome(bits, palette, words)
	if decoded.Get(p00) != "minecraft:plains" || decoded.Get(p01) != "minecraft:desert" {
		t.Error("decode mismatch")
	}
}
