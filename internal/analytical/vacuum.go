// vacuum.go compacts the append-only table.

package analytical

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Rows written by an Action that has not reached a terminal state are kept:
// a recovered run uses them to skip documents it already materialised.
const unprotected = `(action_id IS NULL OR action_id NOT IN (
	SELECT id FROM actions WHERE status IN ('pending', 'active')))`

// Vacuum compacts the namespace. Shadowed rows are always removed; keys
// whose winning row is a tombstone are removed entirely, limited to those
// deleted more than olderThan ago when set. Tombstoned relations are
// compacted too. Returns the number of things rows removed.
//
// Compaction keeps only each key's winning row, so List order for keys
// rewritten before a vacuum follows their last write afterwards.
func (t *Things) Vacuum(ctx context.Context, olderThan *time.Duration) (int64, error) {
	var removed int64
	err := t.s.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM things
			WHERE ns = ?
			AND seq NOT IN (SELECT MAX(seq) FROM things WHERE ns = ? GROUP BY id)
			AND `+unprotected, t.ns, t.ns)
		if err != nil {
			return fmt.Errorf("remove shadowed rows: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n

		q := `DELETE FROM things WHERE ns = ? AND id IN (
			SELECT t.id FROM things t
			JOIN (SELECT MAX(seq) AS seq FROM things WHERE ns = ? GROUP BY id) l ON t.seq = l.seq
			WHERE t.deleted_at IS NOT NULL`
		args := []any{t.ns, t.ns}
		if olderThan != nil {
			q += ` AND t.deleted_at < ?`
			args = append(args, toUnix(time.Now().Add(-*olderThan)))
		}
		// A key with any protected row survives whole, otherwise removing
		// the tombstone would let an older row win again.
		q += `) AND id NOT IN (SELECT id FROM things WHERE ns = ? AND NOT ` + unprotected + `)`
		args = append(args, t.ns)

		res, err = tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("remove tombstoned keys: %w", err)
		}
		n, _ = res.RowsAffected()
		removed += n

		_, err = compactRelations(ctx, tx, t.ns)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
