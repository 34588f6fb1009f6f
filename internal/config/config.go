// Package config loads the TOML server descriptor (world groups, world
// entries, generator settings) named in spec §6's config interface.
package config

import (
	"fmt"

	"github.com/pelletier/go-toml"

	"github.com/go-mclib/server/internal/key"
	"github.com/go-mclib/server/internal/world/gen"
)

// GeneratorKind tags which variant of GeneratorSettings is populated,
// per spec §6's "tagged variant {Flat{...} | Noise{...} | Debug{}}".
type GeneratorKind string

const (
	GeneratorFlat  GeneratorKind = "flat"
	GeneratorNoise GeneratorKind = "noise"
	GeneratorDebug GeneratorKind = "debug"
)

// GeneratorSettings is the raw TOML shape of a world entry's generator
// block; Flat is fully specified (Noise's density functions are a
// documented source-side stub, out of scope per spec §9 (OQ-c)).
type GeneratorSettings struct {
	Kind GeneratorKind     `toml:"kind"`
	Flat *gen.FlatSettings `toml:"flat,omitempty"`
	// NoiseSettings is carried as an opaque key for round-tripping only;
	// the density-function stubs it would drive are out of scope.
	NoiseSettings string `toml:"noise_settings,omitempty"`
}

// WorldEntry is one `(name, path, world_type, generator_settings, seed?)`
// tuple from spec §6.
type WorldEntry struct {
	Name              string            `toml:"name"`
	Path              string            `toml:"path"`
	WorldType         string            `toml:"world_type"`
	GeneratorSettings GeneratorSettings `toml:"generator"`
	Seed              *int64            `toml:"seed,omitempty"`
}

// WorldTypeKey parses WorldType as a namespaced key.
func (w WorldEntry) WorldTypeKey() (key.Key, error) { return key.Parse(w.WorldType) }

// WorldGroup is `(name, worlds[], portal_rules_in, portal_rules_out)`
// from spec §6.
type WorldGroup struct {
	Name           string       `toml:"name"`
	Worlds         []WorldEntry `toml:"worlds"`
	PortalRulesIn  []string     `toml:"portal_rules_in"`
	PortalRulesOut []string     `toml:"portal_rules_out"`
}

// Server is the top-level server.toml document.
type Server struct {
	ListenAddress        string       `toml:"listen_address"`
	MaxPlayers           int          `toml:"max_players"`
	OnlineMode           bool         `toml:"online_mode"`
	CompressionThreshold int32        `toml:"compression_threshold"`
	DataPackPath         string       `toml:"data_pack_path"`
	WorldGroups          []WorldGroup `toml:"world_group"`
}

// Load parses a server.toml document. pelletier/go-toml's Unmarshal is
// used directly, matching how the dragonfly family of repos in this
// retrieval pack vendor the same library for their own server.toml /
// config.toml descriptors.
func Load(data []byte) (*Server, error) {
	var s Server
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("config: parse server.toml: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Server) validate() error {
	if s.ListenAddress == "" {
		return fmt.Errorf("config: listen_address is required")
	}
	for _, g := range s.WorldGroups {
		if g.Name == "" {
			return fmt.Errorf("config: world_group missing name")
		}
		for _, w := range g.Worlds {
			if w.Name == "" || w.Path == "" {
				return fmt.Errorf("config: world_group %q: world entry missing name/path", g.Name)
			}
			if _, err := w.WorldTypeKey(); err != nil {
				return fmt.Errorf("config: world %q: malformed world_type %q: %w", w.Name, w.WorldType, err)
			}
			switch w.GeneratorSettings.Kind {
			case GeneratorFlat:
				if w.GeneratorSettings.Flat == nil {
					return fmt.Errorf("config: world %q: generator kind flat requires [generator.flat]", w.Name)
				}
			case GeneratorNoise, GeneratorDebug:
			default:
				return fmt.Errorf("config: world %q: unknown generator kind %q", w.Name, w.GeneratorSettings.Kind)
			}
		}
	}
	return nil
}
