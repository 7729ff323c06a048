// Package storage is the sqlite persistence layer: the RAG Entry store
// (chunk text + content_hash, keyed (document_id, chunk_index)) and the
// embedding-cache disk tier, both named in spec §6 "Persisted state
// layout", grounded in hazyhaar-GoClode/internal/core.Engine's
// WAL-pragma-on-open, schema-on-init style (database/sql + modernc.org/sqlite).
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if absent) a sqlite database at path with the same
// WAL/synchronous/busy-timeout pragmas the teacher's db.Engine uses for
// concurrent single-writer/many-reader access (spec §5 "Shared resources").
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: ping %s: %w", path, err)
	}
	return db, nil
}
