package registry

import (
	"testing"

	"github.com/go-mclib/server/internal/key"
)

func TestBuilderFreezeLooksUpByKeyAndRuntimeID(t *testing.T) {
	b := NewBuilder()
	stoneID := b.RegisterBlock(key.Vanilla("stone"), nil)
	dirtID := b.RegisterBlock(key.Vanilla("dirt"), nil)
	stoneItemID := b.RegisterItem(key.Vanilla("stone"), 64)
	if err := b.LinkBlockItem(stoneID, stoneItemID); err != nil {
		t.Fatalf("LinkBlockItem: %v", err)
	}
	_ = dirtID

	r := b.Freeze()

	stone, ok := r.Block(key.Vanilla("stone"))
	if !ok || stone.RuntimeID != stoneID {
		t.Fatalf("Block(stone) = %+v, %v", stone, ok)
	}
	byID, ok := r.BlockByRuntimeID(stoneID)
	if !ok || !byID.Key.Equal(key.Vanilla("stone")) {
		t.Fatalf("BlockByRuntimeID mismatch: %+v", byID)
	}

	item, ok := r.ItemForBlock(stone)
	if !ok || item.MaxStackSize != 64 {
		t.Fatalf("ItemForBlock = %+v, %v", item, ok)
	}
	backToBlock, ok := r.BlockForItem(item)
	if !ok || !backToBlock.Key.Equal(key.Vanilla("stone")) {
		t.Fatalf("BlockForItem cyclic reference broken: %+v", backToBlock)
	}

	dirt, ok := r.Block(key.Vanilla("dirt"))
	if !ok {
		t.Fatal("expected dirt registered")
	}
	if _, ok := r.ItemForBlock(dirt); ok {
		t.Fatal("dirt should have no linked item")
	}
}

func TestBlockAndBiomeLookupMissReturnsFalse(t *testing.T) {
	r := NewBuilder().Freeze()
	if _, ok := r.Block(key.Vanilla("stone")); ok {
		t.Fatal("expected miss on empty registry")
	}
	if _, ok := r.Biome(key.Vanilla("plains")); ok {
		t.Fatal("expected miss on empty registry")
	}
}

func TestLoadDataPackParsesCommentsAndLinksItems(t *testing.T) {
	doc := []byte(`{
		// core blocks
		"blocks": [
			{"key": "minecraft:stone", "item": "minecraft:stone"},
			{"key": "minecraft:air"}
		],
		"items": [
			{"key": "minecraft:stone", "max_stack_size": 64}
		],
		"biomes": [
			{"key": "minecraft:plains"}
		]
	}`)

	r, err := LoadDataPack(doc)
	if err != nil {
		t.Fatalf("LoadDataPack: %v", err)
	}
	if r.BlockCount() != 2 || r.ItemCount() != 1 || r.BiomeCount() != 1 {
		t.Fatalf("counts = %d/%d/%d", r.BlockCount(), r.ItemCount(), r.BiomeCount())
	}
	stone, ok := r.Block(key.Vanilla("stone"))
	if !ok {
		t.Fatal("expected stone registered")
	}
	if _, ok := r.ItemForBlock(stone); !ok {
		t.Fatal("expected stone linked to its item")
	}
}

func TestLoadDataPackRejectsUnknownItemReference(t *testing.T) {
	doc := []byte(`{"blocks": [{"key": "minecraft:stone", "item": "minecraft:missing"}]}`)
	if _, err := LoadDataPack(doc); err == nil {
		t.Fatal("expected error for unknown item reference")
	}
}
