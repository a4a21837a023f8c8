package store

import (
	"context"
	"database/sql"

	"github.com/quillcraft/inkwell/core/errors"
)

// RequiredBeats returns the scene's load-bearing block ids. A scene without
// an outline card has no required beats; nothing is guarded.
func (s *SQLiteStore) RequiredBeats(ctx context.Context, sceneID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT block_id FROM outline_beats WHERE scene_id = ? ORDER BY block_id`, sceneID)
	if err != nil {
		return nil, errors.Wrap(err, "load required beats")
	}
	defer rows.Close()

	var beats []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan beat")
		}
		beats = append(beats, id)
	}
	return beats, rows.Err()
}

// SetRequiredBeats replaces the scene's required-beat set.
func (s *SQLiteStore) SetRequiredBeats(ctx context.Context, sceneID string, blockIDs []string) error {
	return s.tx(ctx, func(t *sql.Tx) error {
		if _, err := t.ExecContext(ctx, `DELETE FROM outline_beats WHERE scene_id = ?`, sceneID); err != nil {
			return errors.Wrap(err, "clear beats")
		}
		for _, id := range blockIDs {
			if _, err := t.ExecContext(ctx,
				`INSERT INTO outline_beats (scene_id, block_id) VALUES (?, ?)`, sceneID, id); err != nil {
				return errors.Wrap(err, "insert beat")
			}
		}
		return nil
	})
}
