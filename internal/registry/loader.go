package registry

import (
	"encoding/json"
	"fmt"

	"github.com/df-mc/jsonc"

	"github.com/go-mclib/server/internal/key"
)

// BlockDef is one entry of a data-pack block definitions file, per
// spec §6's config interface and §9's registry design note.
type BlockDef struct {
	Key        string              `json:"key"`
	Item       string              `json:"item,omitempty"`
	Properties map[string][]string `json:"properties,omitempty"`
}

type ItemDef struct {
	Key          string `json:"key"`
	MaxStackSize int    `json:"max_stack_size"`
}

type BiomeDef struct {
	Key string `json:"key"`
}

// DataPack is the top-level shape of a registry data-pack file. Author
// convenience comments (// and /* */) are stripped by jsonc before
// standard JSON decoding, matching the data-pack authoring experience
// dragonfly-family servers support for their own JSON config files.
type DataPack struct {
	Blocks []BlockDef `json:"blocks"`
	Items  []ItemDef  `json:"items"`
	Biomes []BiomeDef `json:"biomes"`
}

// LoadDataPack parses a jsonc-commented data-pack document and
// registers every block/item/biome it names, wiring block<->item
// cycles from each BlockDef's Item field if present. The returned
// Registry is frozen and ready for use.
func LoadDataPack(data []byte) (*Registry, error) {
	clean := jsonc.ToJSON(data)

	var pack DataPack
	if err := json.Unmarshal(clean, &pack); err != nil {
		return nil, fmt.Errorf("registry: decode data pack: %w", err)
	}

	b := NewBuilder()
	itemIDByKey := make(map[string]int32, len(pack.Items))
	for _, id := range pack.Items {
		k, err := key.Parse(id.Key)
		if err != nil {
			return nil, fmt.Errorf("registry: item %q: %w", id.Key, err)
		}
		itemIDByKey[id.Key] = b.RegisterItem(k, id.MaxStackSize)
	}

	for _, bd := range pack.Blocks {
		k, err := key.Parse(bd.Key)
		if err != nil {
			return nil, fmt.Errorf("registry: block %q: %w", bd.Key, err)
		}
		blockID := b.RegisterBlock(k, bd.Properties)
		if bd.Item != "" {
			itemID, ok := itemIDByKey[bd.Item]
			if !ok {
				return nil, fmt.Errorf("registry: block %q references unknown item %q", bd.Key, bd.Item)
			}
			if err := b.LinkBlockItem(blockID, itemID); err != nil {
				return nil, err
			}
		}
	}

	for _, bm := range pack.Biomes {
		k, err := key.Parse(bm.Key)
		if err != nil {
			return nil, fmt.Errorf("registry: biome %q: %w", bm.Key, err)
		}
		b.RegisterBiome(k)
	}

	return b.Freeze(), nil
}
