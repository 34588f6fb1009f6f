// Package registry implements the block/item/biome registries of spec
// §9's "Global static registries" design note: populated once at
// startup from data-pack JSON, then frozen read-only, indexed by
// numeric runtime ID on the hot path and by namespaced key only on the
// slow path.
package registry

import (
	"fmt"

	"github.com/brentp/intintmap"

	"github.com/go-mclib/server/internal/key"
)

// noCounterpart marks a block/item entry with no arena-linked opposite
// side (a block with no item form, or vice versa).
const noCounterpart = -1

// BlockEntry is one frozen block registration.
type BlockEntry struct {
	Key        key.Key
	RuntimeID  int32
	ItemID     int32 // index into Registry.items, or noCounterpart
	Properties map[string][]string
}

// ItemEntry is one frozen item registration.
type ItemEntry struct {
	Key          key.Key
	RuntimeID    int32
	BlockID      int32 // index into Registry.blocks, or noCounterpart
	MaxStackSize int
}

// BiomeEntry is one frozen biome registration.
type BiomeEntry struct {
	Key       key.Key
	RuntimeID int32
}

// Registry is the frozen, read-only set of block/item/biome
// registrations for a running server. Concurrent reads require no
// synchronization (spec §5's "Registries are initialized once ...
// read-only thereafter").
type Registry struct {
	blocks []BlockEntry
	items  []ItemEntry
	biomes []BiomeEntry

	blockIndex *intintmap.Map
	itemIndex  *intintmap.Map
	biomeIndex *intintmap.Map
}

// Block looks up a block entry by namespaced key — the slow path, per
// spec §9.
func (r *Registry) Block(k key.Key) (BlockEntry, bool) {
	id, ok := r.blockIndex.Get(int64(k.Hash()))
	if !ok {
		return BlockEntry{}, false
	}
	return r.blocks[id], true
}

// BlockByRuntimeID looks up a block entry by numeric ID — the hot path.
func (r *Registry) BlockByRuntimeID(id int32) (BlockEntry, bool) {
	if id < 0 || int(id) >= len(r.blocks) {
		return BlockEntry{}, false
	}
	return r.blocks[id], true
}

// ItemForBlock follows a block entry's arena-linked counterpart item,
// per spec §9's cyclic block<->item reference design note.
func (r *Registry) ItemForBlock(b BlockEntry) (ItemEntry, bool) {
	if b.ItemID == noCounterpart {
		return ItemEntry{}, false
	}
	return r.items[b.ItemID], true
}

func (r *Registry) Item(k key.Key) (ItemEntry, bool) {
	id, ok := r.itemIndex.Get(int64(k.Hash()))
	if !ok {
		return ItemEntry{}, false
	}
	return r.items[id], true
}

func (r *Registry) ItemByRuntimeID(id int32) (ItemEntry, bool) {
	if id < 0 || int(id) >= len(r.items) {
		return ItemEntry{}, false
	}
	return r.items[id], true
}

// BlockForItem follows an item entry's arena-linked counterpart block.
func (r *Registry) BlockForItem(it ItemEntry) (BlockEntry, bool) {
	if it.BlockID == noCounterpart {
		return BlockEntry{}, false
	}
	return r.blocks[it.BlockID], true
}

func (r *Registry) Biome(k key.Key) (BiomeEntry, bool) {
	id, ok := r.biomeIndex.Get(int64(k.Hash()))
	if !ok {
		return BiomeEntry{}, false
	}
	return r.biomes[id], true
}

func (r *Registry) BiomeByRuntimeID(id int32) (BiomeEntry, bool) {
	if id < 0 || int(id) >= len(r.biomes) {
		return BiomeEntry{}, false
	}
	return r.biomes[id], true
}

func (r *Registry) BlockCount() int { return len(r.blocks) }
func (r *Registry) ItemCount() int  { return len(r.items) }
func (r *Registry) BiomeCount() int { return len(r.biomes) }

// Builder accumulates registrations before Freeze builds the arena and
// the hash indexes, matching LunarN0v4-dragonfly's block_state.go
// build-then-freeze lifecycle (there driven by a block-state hash
// instead of a namespaced key, here generalized to key.Key.Hash()).
type Builder struct {
	blocks []BlockEntry
	items  []ItemEntry
	biomes []BiomeEntry
}

func NewBuilder() *Builder { return &Builder{} }

// RegisterBlock adds a block with no counterpart item yet; pass the
// returned ID to a later LinkBlockItem call to complete the cycle.
func (b *Builder) RegisterBlock(k key.Key, properties map[string][]string) int32 {
	id := int32(len(b.blocks))
	b.blocks = append(b.blocks, BlockEntry{Key: k, RuntimeID: id, ItemID: noCounterpart, Properties: properties})
	return id
}

func (b *Builder) RegisterItem(k key.Key, maxStackSize int) int32 {
	id := int32(len(b.items))
	b.items = append(b.items, ItemEntry{Key: k, RuntimeID: id, BlockID: noCounterpart, MaxStackSize: maxStackSize})
	return id
}

func (b *Builder) RegisterBiome(k key.Key) int32 {
	id := int32(len(b.biomes))
	b.biomes = append(b.biomes, BiomeEntry{Key: k, RuntimeID: id})
	return id
}

// LinkBlockItem wires the arena cross-reference between a block and its
// block-item, per spec §9 ("each arena entry stores the opposite-side
// ID as a plain integer").
func (b *Builder) LinkBlockItem(blockID, itemID int32) error {
	if blockID < 0 || int(blockID) >= len(b.blocks) {
		return fmt.Errorf("registry: block id %d out of range", blockID)
	}
	if itemID < 0 || int(itemID) >= len(b.items) {
		return fmt.Errorf("registry: item id %d out of range", itemID)
	}
	b.blocks[blockID].ItemID = itemID
	b.items[itemID].BlockID = blockID
	return nil
}

// Freeze builds the frozen Registry and its hash indexes. intintmap is
// sized exactly to the entry count with the 0.999 fill factor
// LunarN0v4-dragonfly uses for its own build-once block-state table —
// this registry is the natural home for that dependency since, like
// dragonfly's, it is built once at startup and never deleted from.
func (b *Builder) Freeze() *Registry {
	r := &Registry{blocks: b.blocks, items: b.items, biomes: b.biomes}

	r.blockIndex = intintmap.New(max1(len(b.blocks)), 0.999)
	for _, e := range b.blocks {
		r.blockIndex.Put(int64(e.Key.Hash()), int64(e.RuntimeID))
	}

	r.itemIndex = intintmap.New(max1(len(b.items)), 0.999)
	for _, e := range b.items {
		r.itemIndex.Put(int64(e.Key.Hash()), int64(e.RuntimeID))
	}

	r.biomeIndex = intintmap.New(max1(len(b.biomes)), 0.999)
	for _, e := range b.biomes {
		r.biomeIndex.Put(int64(e.Key.Hash()), int64(e.RuntimeID))
	}

	return r
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
