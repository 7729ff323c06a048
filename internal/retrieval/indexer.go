package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkforge/quillcore/internal/document"
)

// chunkSize and chunkOverlap bound the fixed-window chunker used when
// indexing a document's full text for retrieval (SPEC_FULL.md supplemented
// feature: batch indexer).
const (
	chunkSize    = 800
	chunkOverlap = 100
)

// ContentChunk is one chunk persisted alongside a document's content hash.
type ContentChunk struct {
	ChunkIndex int
	Text       string
}

// ContentStore persists chunk text alongside a per-document content hash so
// an unchanged document can be skipped on reindex (spec §8 "Reindexing a
// document whose content_hash is unchanged is a no-op"), satisfied by
// internal/storage.RagEntryStore.
type ContentStore interface {
	ContentHash(ctx context.Context, docID document.ID) (string, bool, error)
	ReplaceDocument(ctx context.Context, docID document.ID, contentHash string, chunks []ContentChunk) error
	DeleteDocument(ctx context.Context, docID document.ID) error
}

// Indexer splits documents into overlapping chunks, embeds them, and writes
// them to both the vector store and the lexical fallback index, keeping the
// two in sync.
type Indexer struct {
	Embedder   Embedder
	EmbedModel string
	Store      VectorStore
	Lexical    *LexicalIndex
	// Content, when set, records chunk text + a content hash so an
	// unchanged document is skipped entirely (zero writes).
	Content ContentStore
	// HashText computes the content hash compared against Content's
	// stored value; defaults to a stdlib sha256 hex digest when nil.
	HashText func(string) string
	Log      *slog.Logger
}

func NewIndexer(embedder Embedder, model string, store VectorStore, lexical *LexicalIndex) *Indexer {
	return &Indexer{Embedder: embedder, EmbedModel: model, Store: store, Lexical: lexical, HashText: defaultHashText, Log: slog.Default()}
}

func defaultHashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// chunkText splits text into overlapping rune windows.
func chunkText(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	step := chunkSize - chunkOverlap
	if step <= 0 {
		step = chunkSize
	}
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// IndexDocument (re)indexes docID's full text: chunk, embed, and upsert.
// If Content is set and fullText's hash matches the previously recorded
// one, the document is skipped entirely (spec §8 "zero writes" no-op).
// A chunk whose embedding call fails is logged and dropped rather than
// aborting the whole document: the remaining chunks are still persisted
// and the document is considered partially indexed, to be revisited on
// the next reindex sweep or save (spec §4.4 edge case).
func (ix *Indexer) IndexDocument(ctx context.Context, docID document.ID, fullText string) error {
	hash := ix.hashText(fullText)
	if ix.Content != nil {
		if prev, ok, err := ix.Content.ContentHash(ctx, docID); err == nil && ok && prev == hash {
			return nil
		}
	}

	pieces := chunkText(fullText)
	points := make([]Point, 0, len(pieces))
	records := make([]ContentChunk, 0, len(pieces))
	var failures int
	for i, chunk := range pieces {
		vector, err := ix.Embedder.Embed(ctx, chunk)
		if err != nil {
			failures++
			if ix.Log != nil {
				ix.Log.Error("retrieval: index chunk failed", "document_id", docID, "chunk_index", i, "error", err)
			}
			continue
		}
		points = append(points, Point{DocumentID: docID, ChunkIndex: i, Text: chunk, Vector: vector})
		records = append(records, ContentChunk{ChunkIndex: i, Text: chunk})
		if ix.Lexical != nil {
			ix.Lexical.Add(Item{DocumentID: docID, ChunkIndex: i, Text: chunk})
		}
	}

	if ix.Store != nil && len(points) > 0 {
		if err := ix.Store.Upsert(ctx, points); err != nil {
			return fmt.Errorf("retrieval: upsert %s: %w", docID, err)
		}
	}
	if ix.Content != nil {
		// A partially-failed document is not recorded as fully hashed, so
		// the next sweep retries the whole document rather than treating
		// the gaps as intentional.
		if failures == 0 {
			if err := ix.Content.ReplaceDocument(ctx, docID, hash, records); err != nil {
				return fmt.Errorf("retrieval: persist chunks %s: %w", docID, err)
			}
		} else if ix.Log != nil {
			ix.Log.Warn("retrieval: document partially indexed", "document_id", docID, "failed_chunks", failures, "total_chunks", len(pieces))
		}
	}
	return nil
}

func (ix *Indexer) hashText(text string) string {
	if ix.HashText != nil {
		return ix.HashText(text)
	}
	return defaultHashText(text)
}

// RemoveDocument deletes every chunk for docID from all stores.
func (ix *Indexer) RemoveDocument(ctx context.Context, docID document.ID) error {
	if ix.Lexical != nil {
		ix.Lexical.RemoveDocument(docID)
	}
	if ix.Content != nil {
		if err := ix.Content.DeleteDocument(ctx, docID); err != nil {
			return fmt.Errorf("retrieval: delete content %s: %w", docID, err)
		}
	}
	if ix.Store != nil {
		return ix.Store.DeleteDocument(ctx, docID)
	}
	return nil
}
