package chunkmap

import (
	"sync"

	"github.com/df-mc/atomic"

	"github.com/go-mclib/server/internal/world"
)

// Handle is the shared, reference-counted wrapper the chunk map hands
// out for a loaded chunk: one writer at a time via mu, and a Loaded
// flag that readers can check to detect a handle that was cloned away
// out from under them during an unload race, per spec §4.5's
// "loaded flag ... so concurrent readers observing a still-shared copy
// know it is stale" invariant.
type Handle struct {
	mu      sync.RWMutex
	chunk   *world.Chunk
	Loaded  atomic.Bool
	refs    atomic.Int32
}

func newHandle(c *world.Chunk) *Handle {
	h := &Handle{chunk: c}
	h.refs.Store(1)
	return h
}

// Acquire increments the reference count and returns the handle, for
// callers that intend to hold it across an await point.
func (h *Handle) Acquire() *Handle {
	h.refs.Add(1)
	return h
}

// Release decrements the reference count, reporting whether this was
// the last reference.
func (h *Handle) Release() (last bool) {
	return h.refs.Add(-1) == 0
}

// RLock/RUnlock/Lock/Unlock expose the interior reader/writer exclusion
// spec §4.5 requires ("shared handle with interior reader/writer
// exclusion").
func (h *Handle) RLock()   { h.mu.RLock() }
func (h *Handle) RUnlock() { h.mu.RUnlock() }
func (h *Handle) Lock()    { h.mu.Lock() }
func (h *Handle) Unlock()  { h.mu.Unlock() }

// Chunk returns the wrapped chunk. Callers must hold RLock or Lock.
func (h *Handle) Chunk() *world.Chunk { return h.chunk }

// Snapshot deep-copies enough of the chunk for a consistent save when
// the handle cannot be taken uniquely at unload time (spec §4.5: "the
// map clones the current snapshot, marks the handle unloaded, and
// saves the snapshot").
func (h *Handle) Snapshot() *world.Chunk {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.chunk.Clone()
}
