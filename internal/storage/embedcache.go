package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const embedCacheSchema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	cache_key  INTEGER PRIMARY KEY,
	vector     BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// EmbeddingDiskCache is the disk-spillover tier backing
// internal/retrieval.EmbeddingCache, satisfying its DiskCache interface
// (spec §3 "Embedding Cache Entry" / §5 "write-through disk layer").
type EmbeddingDiskCache struct {
	db  *sql.DB
	ttl time.Duration
}

// NewEmbeddingDiskCache opens the schema on db. ttl is applied to every
// Put; entries whose expires_at has passed are never returned as a hit
// (spec §3 invariant), though they may still linger until swept.
func NewEmbeddingDiskCache(db *sql.DB, ttl time.Duration) (*EmbeddingDiskCache, error) {
	if _, err := db.Exec(embedCacheSchema); err != nil {
		return nil, fmt.Errorf("storage: init embedding cache schema: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EmbeddingDiskCache{db: db, ttl: ttl}, nil
}

// Get satisfies internal/retrieval.DiskCache.
func (c *EmbeddingDiskCache) Get(ctx context.Context, key uint64) ([]float32, bool, error) {
	var blob []byte
	var expiresAt int64
	err := c.db.QueryRowContext(ctx, `SELECT vector, expires_at FROM embedding_cache WHERE cache_key = ?`, int64(key)).Scan(&blob, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: embedding cache get: %w", err)
	}
	if expiresAt < time.Now().Unix() {
		return nil, false, nil
	}
	return decodeVector(blob), true, nil
}

// Put satisfies internal/retrieval.DiskCache.
func (c *EmbeddingDiskCache) Put(ctx context.Context, key uint64, vector []float32) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (cache_key, vector, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET vector = excluded.vector, expires_at = excluded.expires_at
	`, int64(key), encodeVector(vector), time.Now().Add(c.ttl).Unix())
	if err != nil {
		return fmt.Errorf("storage: embedding cache put: %w", err)
	}
	return nil
}

// Sweep deletes every expired entry. Nothing in this module calls it; the
// reindex sweep does not.
func (c *EmbeddingDiskCache) Sweep(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM embedding_cache WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("storage: embedding cache sweep: %w", err)
	}
	return res.RowsAffected()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
