// Package store persists documents and outline cards in SQLite. It is the
// persistence collaborator behind the editing engine (Load/Save/Delete) and
// the outline collaborator behind the delete guard (RequiredBeats). The
// engine itself is agnostic to the storage engine behind these contracts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// SQLiteStore implements the persistence and outline contracts using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open(driverName, dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL DEFAULT '',
		base_version  TEXT NOT NULL,
		last_modified TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS blocks (
		doc_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		seq     INTEGER NOT NULL,
		id      TEXT NOT NULL,
		type    TEXT NOT NULL,
		text    TEXT NOT NULL,
		hash    TEXT NOT NULL,
		level   INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (doc_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_blocks_doc_seq ON blocks(doc_id, seq);

	CREATE TABLE IF NOT EXISTS outline_beats (
		scene_id TEXT NOT NULL,
		block_id TEXT NOT NULL,
		PRIMARY KEY (scene_id, block_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// tx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStore) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		t.Rollback()
		return err
	}
	return t.Commit()
}
