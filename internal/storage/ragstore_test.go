package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/inkforge/quillcore/internal/retrieval"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*RagEntryStore, *EmbeddingDiskCache) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rag, err := NewRagEntryStore(db)
	require.NoError(t, err)
	cache, err := NewEmbeddingDiskCache(db, 0)
	require.NoError(t, err)
	return rag, cache
}

func TestRagEntryStore_ReplaceAndHash(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestDB(t)
	docID := document.ID("doc-1")

	_, ok, err := store.ContentHash(ctx, docID)
	require.NoError(t, err)
	require.False(t, ok)

	err = store.ReplaceDocument(ctx, docID, "hash-a", []retrieval.ContentChunk{
		{ChunkIndex: 0, Text: "first chunk"},
		{ChunkIndex: 1, Text: "second chunk"},
	})
	require.NoError(t, err)

	hash, ok, err := store.ContentHash(ctx, docID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash-a", hash)

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM rag_entries WHERE document_id = ?`, string(docID)).Scan(&count))
	require.Equal(t, 2, count)

	// Replacing again fully swaps the chunk set rather than appending.
	err = store.ReplaceDocument(ctx, docID, "hash-b", []retrieval.ContentChunk{
		{ChunkIndex: 0, Text: "only chunk"},
	})
	require.NoError(t, err)
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM rag_entries WHERE document_id = ?`, string(docID)).Scan(&count))
	require.Equal(t, 1, count)
}

func TestRagEntryStore_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestDB(t)
	docID := document.ID("doc-2")

	require.NoError(t, store.ReplaceDocument(ctx, docID, "h", []retrieval.ContentChunk{{ChunkIndex: 0, Text: "x"}}))
	require.NoError(t, store.DeleteDocument(ctx, docID))

	_, ok, err := store.ContentHash(ctx, docID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmbeddingDiskCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	_, cache := openTestDB(t)

	_, ok, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	require.False(t, ok)

	vec := []float32{0.1, -0.2, 3.5}
	require.NoError(t, cache.Put(ctx, 42, vec))

	got, ok, err := cache.Get(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, vec, got)
}

func TestEmbeddingDiskCache_ExpiredEntryNotReturned(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	cache, err := NewEmbeddingDiskCache(db, -1) // negative ttl normalizes to default, so force expiry directly
	require.NoError(t, err)

	require.NoError(t, cache.Put(ctx, 1, []float32{1}))
	_, err = db.Exec(`UPDATE embedding_cache SET expires_at = 0 WHERE cache_key = 1`)
	require.NoError(t, err)

	_, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
}
