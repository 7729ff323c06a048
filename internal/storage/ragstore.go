package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/inkforge/quillcore/internal/document"
	"github.com/inkforge/quillcore/internal/retrieval"
)

const ragSchema = `
CREATE TABLE IF NOT EXISTS document_hashes (
	document_id  TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	updated_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rag_entries (
	document_id  TEXT NOT NULL,
	chunk_index  INTEGER NOT NULL,
	chunk_text   TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	PRIMARY KEY (document_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_rag_entries_document ON rag_entries(document_id);
`

// RagEntryStore is the sqlite-backed RAG Entry table described in spec §3
// and §6, plus the per-document content_hash this module uses to skip
// reindexing unchanged documents (spec §8 "Reindexing a document whose
// content_hash is unchanged is a no-op").
type RagEntryStore struct {
	db *sql.DB
}

// NewRagEntryStore opens the schema on db, creating tables if absent.
func NewRagEntryStore(db *sql.DB) (*RagEntryStore, error) {
	if _, err := db.Exec(ragSchema); err != nil {
		return nil, fmt.Errorf("storage: init rag schema: %w", err)
	}
	return &RagEntryStore{db: db}, nil
}

// ContentHash reports the previously-recorded hash for docID, if any.
func (s *RagEntryStore) ContentHash(ctx context.Context, docID document.ID) (string, bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT content_hash FROM document_hashes WHERE document_id = ?`, string(docID)).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: content hash %s: %w", docID, err)
	}
	return hash, true, nil
}

// ReplaceDocument deletes docID's prior chunks and hash and inserts the new
// ones as a single transaction (spec §5 "Writes are transactional at
// document granularity").
func (s *RagEntryStore) ReplaceDocument(ctx context.Context, docID document.ID, contentHash string, chunks []retrieval.ContentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin replace %s: %w", docID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_entries WHERE document_id = ?`, string(docID)); err != nil {
		return fmt.Errorf("storage: delete old chunks %s: %w", docID, err)
	}

	now := time.Now().Unix()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rag_entries (document_id, chunk_index, chunk_text, content_hash, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: prepare insert %s: %w", docID, err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, string(docID), c.ChunkIndex, c.Text, contentHash, now); err != nil {
			return fmt.Errorf("storage: insert chunk %d of %s: %w", c.ChunkIndex, docID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_hashes (document_id, content_hash, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET content_hash = excluded.content_hash, updated_at = excluded.updated_at
	`, string(docID), contentHash, now)
	if err != nil {
		return fmt.Errorf("storage: upsert hash %s: %w", docID, err)
	}

	return tx.Commit()
}

// DeleteDocument removes docID's chunks and recorded hash (spec §3
// "deleted on document removal").
func (s *RagEntryStore) DeleteDocument(ctx context.Context, docID document.ID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin delete %s: %w", docID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_entries WHERE document_id = ?`, string(docID)); err != nil {
		return fmt.Errorf("storage: delete chunks %s: %w", docID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_hashes WHERE document_id = ?`, string(docID)); err != nil {
		return fmt.Errorf("storage: delete hash %s: %w", docID, err)
	}
	return tx.Commit()
}
