package retrieval

import (
	"context"
	"hash/maphash"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DiskCache is the persistent embedding-cache tier (spec C4 supplement),
// backed by internal/storage in production and an in-memory stub in tests.
type DiskCache interface {
	Get(ctx context.Context, key uint64) ([]float32, bool, error)
	Put(ctx context.Context, key uint64, vector []float32) error
}

var embeddingCacheSeed = maphash.MakeSeed()

// embeddingKey fingerprints the text that was embedded, so repeated windows
// (common during debounced re-typing over the same paragraph) skip the
// network round trip entirely.
func embeddingKey(model, text string) uint64 {
	var h maphash.Hash
	h.SetSeed(embeddingCacheSeed)
	h.WriteString(model)
	h.WriteByte(0)
	h.WriteString(text)
	return h.Sum64()
}

// EmbeddingCache is a two-tier cache: an in-memory LRU fronting an optional
// disk tier, grounded in the pack's hashicorp/golang-lru usage pattern.
type EmbeddingCache struct {
	mem  *lru.Cache[uint64, []float32]
	disk DiskCache
}

// NewEmbeddingCache builds a cache with capacity memSize entries in memory.
// disk may be nil, in which case only the in-memory tier is used.
func NewEmbeddingCache(memSize int, disk DiskCache) (*EmbeddingCache, error) {
	if memSize <= 0 {
		memSize = 512
	}
	mem, err := lru.New[uint64, []float32](memSize)
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{mem: mem, disk: disk}, nil
}

func (c *EmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool) {
	key := embeddingKey(model, text)
	if v, ok := c.mem.Get(key); ok {
		return v, true
	}
	if c.disk == nil {
		return nil, false
	}
	v, ok, err := c.disk.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	c.mem.Add(key, v)
	return v, true
}

func (c *EmbeddingCache) Put(ctx context.Context, model, text string, vector []float32) {
	key := embeddingKey(model, text)
	c.mem.Add(key, vector)
	if c.disk != nil {
		_ = c.disk.Put(ctx, key, vector)
	}
}
