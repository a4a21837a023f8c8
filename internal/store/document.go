package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/quillcraft/inkwell/core/doc"
	"github.com/quillcraft/inkwell/core/errors"
)

// Load reads a document and its ordered blocks. Returns a NotFoundError when
// no document with the id exists.
func (s *SQLiteStore) Load(ctx context.Context, docID string) (*doc.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, base_version, last_modified FROM documents WHERE id = ?`, docID)

	var d doc.Document
	var lastModified string
	if err := row.Scan(&d.ID, &d.Title, &d.BaseVersion, &lastModified); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFound("document", docID)
		}
		return nil, errors.Wrap(err, "load document")
	}
	if t, err := time.Parse(time.RFC3339Nano, lastModified); err == nil {
		d.LastModified = t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, text, hash, level FROM blocks WHERE doc_id = ? ORDER BY seq`, docID)
	if err != nil {
		return nil, errors.Wrap(err, "load blocks")
	}
	defer rows.Close()

	for rows.Next() {
		var b doc.Block
		if err := rows.Scan(&b.ID, &b.Type, &b.Text, &b.Hash, &b.Level); err != nil {
			return nil, errors.Wrap(err, "scan block")
		}
		d.Blocks = append(d.Blocks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate blocks")
	}

	d.Reindex()
	return &d, nil
}

// Save writes the document and its full block sequence in one transaction,
// replacing any previous state.
func (s *SQLiteStore) Save(ctx context.Context, d *doc.Document) error {
	return s.tx(ctx, func(t *sql.Tx) error {
		_, err := t.ExecContext(ctx, `
			INSERT INTO documents (id, title, base_version, last_modified)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				base_version = excluded.base_version,
				last_modified = excluded.last_modified`,
			d.ID, d.Title, d.BaseVersion, d.LastModified.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return errors.Wrap(err, "save document")
		}

		if _, err := t.ExecContext(ctx, `DELETE FROM blocks WHERE doc_id = ?`, d.ID); err != nil {
			return errors.Wrap(err, "clear blocks")
		}
		for i, b := range d.Blocks {
			_, err := t.ExecContext(ctx, `
				INSERT INTO blocks (doc_id, seq, id, type, text, hash, level)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				d.ID, i, b.ID, string(b.Type), b.Text, b.Hash, b.Level)
			if err != nil {
				return errors.Wrap(err, "save block")
			}
		}
		return nil
	})
}

// Delete removes a document, its blocks, and its outline beats. The caller is
// responsible for the matching chunk-index removal (RemoveDoc).
func (s *SQLiteStore) Delete(ctx context.Context, docID string) error {
	return s.tx(ctx, func(t *sql.Tx) error {
		res, err := t.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID)
		if err != nil {
			return errors.Wrap(err, "delete document")
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return errors.NewNotFound("document", docID)
		}
		if _, err := t.ExecContext(ctx, `DELETE FROM blocks WHERE doc_id = ?`, docID); err != nil {
			return errors.Wrap(err, "delete blocks")
		}
		if _, err := t.ExecContext(ctx, `DELETE FROM outline_beats WHERE scene_id = ?`, docID); err != nil {
			return errors.Wrap(err, "delete outline beats")
		}
		return nil
	})
}

// ListDocuments returns every stored document, blocks included, in id order.
// Used for the startup index rebuild.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*doc.Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM documents ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list documents")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan document id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate documents")
	}

	docs := make([]*doc.Document, 0, len(ids))
	for _, id := range ids {
		d, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}
