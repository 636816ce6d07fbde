package store

import (
	"context"
	"fmt"

	"github.com/roach88/patchwire/internal/ir"
)

// WriteBatch appends one delivered batch for document and returns the
// batch number it was given. Batch numbers start at 1 per document.
//
// The batch is written in a single transaction: either every patch is
// journaled or none is. Empty batches are not journaled and return 0.
func (s *Store) WriteBatch(ctx context.Context, document string, patches []ir.Patch) (int64, error) {
	if len(patches) == 0 {
		return 0, nil
	}

	rows := make([]string, len(patches))
	for i, p := range patches {
		data, err := ir.MarshalPatch(p)
		if err != nil {
			return 0, fmt.Errorf("write batch: patch %d: %w", i, err)
		}
		rows[i] = string(data)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write batch: begin: %w", err)
	}
	defer tx.Rollback()

	var batch int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(batch), 0) + 1
		FROM deliveries
		WHERE document = ?
	`, document).Scan(&batch)
	if err != nil {
		return 0, fmt.Errorf("write batch: next batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deliveries (document, batch, position, obj, kind, patch)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("write batch: prepare: %w", err)
	}
	defer stmt.Close()

	for i, p := range patches {
		_, err := stmt.ExecContext(ctx, document, batch, i, string(p.Obj()), string(p.Kind()), rows[i])
		if err != nil {
			return 0, fmt.Errorf("write batch: insert %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write batch: commit: %w", err)
	}
	return batch, nil
}
