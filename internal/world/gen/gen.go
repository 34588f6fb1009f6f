// Package gen implements chunk generation. Noise-based terrain
// generation is explicitly scoped out (spec §1 Non-goals: "world
// generation beyond a flat-generator skeleton"); Generator is the
// replaceable seam a future noise generator would plug into.
package gen

import "github.com/go-mclib/server/internal/world"

// Generator fills a freshly allocated, all-Empty chunk with blocks and
// biomes. Implementations must be safe to call concurrently for
// different chunks (the chunk map's writer lock already guarantees
// single-writer access to any one chunk).
type Generator interface {
	Generate(c *world.Chunk)
}
