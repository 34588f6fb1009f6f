// Package store pools open Anvil region files behind a per-world
// accessor, lazily opening a region on first access to its grid square
// and evicting the least-recently-used handle once more than MaxOpen
// are held, per spec §4.4/§7.
package store

import (
	"container/list"
	"log"
	"path/filepath"
	"sync"

	"github.com/go-mclib/server/internal/world"
	"github.com/go-mclib/server/internal/world/persist"
	"github.com/go-mclib/server/internal/world/region"
)

// MaxOpen bounds the number of simultaneously open region file handles
// (spec §7: "the pool evicts idle handles under LRU when the live
// count exceeds 16").
const MaxOpen = 16

// Store is a per-world (or per-dimension) region-file accessor: the
// collaborator the chunk map delegates durable state to.
type Store struct {
	mu      sync.Mutex
	dir     string
	logger  *log.Logger
	open    map[world.RegionPos]*list.Element // -> lru entry
	lru     *list.List                        // front = most recently used
}

type lruEntry struct {
	pos    world.RegionPos
	region *region.Region
}

// New returns a Store rooted at dir (a world's "region" subdirectory).
func New(dir string, logger *log.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger,
		open:   make(map[world.RegionPos]*list.Element),
		lru:    list.New(),
	}
}

// Load reads the chunk at pos, decoding it from its region file.
// (nil, false, nil) means the chunk is not yet persisted.
func (s *Store) Load(pos world.ChunkPos) (*world.Chunk, bool, error) {
	r, err := s.regionFor(pos.Region())
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := r.ReadChunk(pos.X, pos.Z)
	if err != nil || !ok {
		return nil, false, err
	}
	c, err := persist.DecodeChunk(raw.Data)
	if err != nil {
		return nil, false, err
	}
	return c, true, nil
}

// Save encodes and writes c to its region file. The region's own
// header is flushed immediately: Store does not defer writes across
// multiple chunks the way a single Region.Save batches locations, since
// chunk map evictions arrive one chunk at a time.
func (s *Store) Save(pos world.ChunkPos, c *world.Chunk) error {
	r, err := s.regionFor(pos.Region())
	if err != nil {
		return err
	}
	data, err := persist.EncodeChunk(c)
	if err != nil {
		return err
	}
	if err := r.WriteChunk(pos.X, pos.Z, region.RawChunk{Data: data, Compression: region.CompressionZlib}); err != nil {
		return err
	}
	return r.Save()
}

// regionFor returns the open region for rp, opening (and possibly
// evicting the LRU tail) if necessary.
func (s *Store) regionFor(rp world.RegionPos) (*region.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.open[rp]; ok {
		s.lru.MoveToFront(elem)
		return elem.Value.(*lruEntry).region, nil
	}

	if s.lru.Len() >= MaxOpen {
		tail := s.lru.Back()
		entry := tail.Value.(*lruEntry)
		if err := entry.region.Close(); err != nil && s.logger != nil {
			s.logger.Printf("store: error closing evicted region %v: %v", entry.pos, err)
		}
		delete(s.open, entry.pos)
		s.lru.Remove(tail)
	}

	path := filepath.Join(s.dir, region.FileName(rp.X, rp.Z))
	r, _, err := region.Open(path, s.logger)
	if err != nil {
		return nil, err
	}
	elem := s.lru.PushFront(&lruEntry{pos: rp, region: r})
	s.open[rp] = elem
	return r, nil
}

// OpenCount reports the number of currently open region file handles,
// for operator dashboards (console.Sink).
func (s *Store) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// CloseAll closes every open region handle, for shutdown.
func (s *Store) CloseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for e := s.lru.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*lruEntry)
		if err := entry.region.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.open = make(map[world.RegionPos]*list.Element)
	s.lru.Init()
	return firstErr
}
