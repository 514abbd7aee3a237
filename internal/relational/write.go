// write.go implements record mutation for the relational backend.
//
// Every mutation is one transaction. A versioned update is a conditional
// UPDATE on (id, version); zero affected rows means another writer won.

package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jpl-au/docstore/internal/store"
)

// Set creates, replaces or revives the record at id.
//
// A row that was soft-deleted counts as absent: CreateOnly succeeds against
// it, UpdateOnly and Version preconditions fail, and the write revives the
// row with Created reported true.
func (s *Store) Set(ctx context.Context, id string, doc store.Document, opts store.SetOptions) (store.SetResult, error) {
	ctxJSON, err := encodeContext(doc.Context)
	if err != nil {
		return store.SetResult{}, err
	}
	data, err := encodeData(doc.Data)
	if err != nil {
		return store.SetResult{}, err
	}

	res := store.SetResult{ID: id}
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		var (
			cur     int64
			deleted sql.NullInt64
		)
		err := tx.QueryRowContext(ctx, `SELECT version, deleted_at FROM documents WHERE id = ?`, id).Scan(&cur, &deleted)
		exists := err == nil
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read current version: %w", err)
		}
		live := exists && !deleted.Valid

		if err := checkPreconditions(id, live, cur, opts); err != nil {
			return err
		}

		now := toUnix(time.Now())
		switch {
		case !exists:
			_, err = tx.ExecContext(ctx, `INSERT INTO documents (id, type, context, data, content, version, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
				id, doc.Type, ctxJSON, data, doc.Content, now, now)
			if err != nil {
				return fmt.Errorf("insert %s: %w", id, err)
			}
			res.Created = true
			res.Version = "1"
			return nil

		case !live:
			_, err = tx.ExecContext(ctx, `UPDATE documents
				SET type = ?, context = ?, data = ?, content = ?, version = version + 1,
				    created_at = ?, updated_at = ?, deleted_at = NULL
				WHERE id = ?`,
				doc.Type, ctxJSON, data, doc.Content, now, now, id)
			if err != nil {
				return fmt.Errorf("revive %s: %w", id, err)
			}
			res.Created = true

		default:
			result, err := tx.ExecContext(ctx, `UPDATE documents
				SET type = ?, context = ?, data = ?, content = ?, version = version + 1, updated_at = ?
				WHERE id = ? AND version = ? AND deleted_at IS NULL`,
				doc.Type, ctxJSON, data, doc.Content, now, id, cur)
			if err != nil {
				return fmt.Errorf("update %s: %w", id, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("update %s: %w", id, err)
			}
			if n == 0 {
				return fmt.Errorf("update %s: %w", id, store.ErrConflict)
			}
		}

		res.Version = strconv.FormatInt(cur+1, 10)
		return nil
	})
	if err != nil {
		return store.SetResult{}, err
	}
	return res, nil
}

func checkPreconditions(id string, live bool, cur int64, opts store.SetOptions) error {
	switch {
	case opts.CreateOnly && live:
		return fmt.Errorf("create %s: already exists: %w", id, store.ErrConflict)
	case opts.UpdateOnly && !live:
		return fmt.Errorf("update %s: does not exist: %w", id, store.ErrConflict)
	case opts.Version != "" && !live:
		return fmt.Errorf("update %s at version %s: does not exist: %w", id, opts.Version, store.ErrConflict)
	case opts.Version != "" && opts.Version != strconv.FormatInt(cur, 10):
		return fmt.Errorf("update %s: version %s is stale (current %d): %w", id, opts.Version, cur, store.ErrConflict)
	}
	return nil
}

// Delete removes or soft-deletes the record at id.
//
// A soft delete of an already soft-deleted row reports Deleted false. A
// hard delete removes the row whatever its state.
func (s *Store) Delete(ctx context.Context, id string, opts store.DeleteOptions) (store.DeleteResult, error) {
	var (
		result sql.Result
		err    error
	)
	if opts.Soft {
		now := toUnix(time.Now())
		result, err = s.db.ExecContext(ctx, `UPDATE documents
			SET deleted_at = ?, updated_at = ?, version = version + 1
			WHERE id = ? AND deleted_at IS NULL`, now, now, id)
	} else {
		result, err = s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	}
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("delete %s: %w", id, err)
	}
	return store.DeleteResult{ID: id, Deleted: n > 0}, nil
}
