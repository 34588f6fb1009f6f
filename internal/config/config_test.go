package config

import "testing"

func TestLoadParsesWorldGroupsAndFlatGenerator(t *testing.T) {
	doc := []byte(`
listen_address = "0.0.0.0:25565"
max_players = 20
online_mode = true
compression_threshold = 256
data_pack_path = "datapacks/vanilla.json"

[[world_group]]
name = "overworld_group"
portal_rules_in = ["minecraft:nether"]
portal_rules_out = ["minecraft:overworld"]

[[world_group.worlds]]
name = "world"
path = "worlds/world"
world_type = "minecraft:overworld"
seed = 12345

[world_group.worlds.generator]
kind = "flat"

[world_group.worlds.generator.flat]
biome = "minecraft:plains"
`)
	s, err := Load(doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ListenAddress != "0.0.0.0:25565" || s.MaxPlayers != 20 || !s.OnlineMode {
		t.Fatalf("top-level fields: %+v", s)
	}
	if len(s.WorldGroups) != 1 || len(s.WorldGroups[0].Worlds) != 1 {
		t.Fatalf("world groups: %+v", s.WorldGroups)
	}
	w := s.WorldGroups[0].Worlds[0]
	if w.Name != "world" || w.Path != "worlds/world" {
		t.Fatalf("world entry: %+v", w)
	}
	k, err := w.WorldTypeKey()
	if err != nil || k.String() != "minecraft:overworld" {
		t.Fatalf("world type key: %v, %v", k, err)
	}
	if w.Seed == nil || *w.Seed != 12345 {
		t.Fatalf("seed: %+v", w.Seed)
	}
	gs := w.GeneratorSettings
	if gs.Kind != GeneratorFlat || gs.Flat == nil || gs.Flat.Biome != "minecraft:plains" {
		t.Fatalf("generator settings: %+v", gs)
	}
}

func TestLoadRejectsMissingListenAddress(t *testing.T) {
	if _, err := Load([]byte(`max_players = 1`)); err == nil {
		t.Fatal("expected error for missing listen_address")
	}
}

func TestLoadRejectsFlatGeneratorWithoutSettings(t *testing.T) {
	doc := []byte(`
listen_address = "0.0.0.0:25565"

[[world_group]]
name = "g"

[[world_group.worlds]]
name = "world"
path = "worlds/world"
world_type = "minecraft:overworld"

[world_group.worlds.generator]
kind = "flat"
`)
	if _, err := Load(doc); err == nil {
		t.Fatal("expected error: flat generator requires [generator.flat]")
	}
}

func TestLoadRejectsUnknownGeneratorKind(t *testing.T) {
	doc := []byte(`
listen_address = "0.0.0.0:25565"

[[world_group]]
name = "g"

[[world_group.worlds]]
name = "world"
path = "worlds/world"
world_type = "minecraft:overworld"

[world_group.worlds.generator]
kind = "bogus"
`)
	if _, err := Load(doc); err == nil {
		t.Fatal("expected error for unknown generator kind")
	}
}
