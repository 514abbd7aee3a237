// vacuum.go permanently removes soft-deleted rows.
//
// Soft delete keeps the row recoverable through RawGet; vacuum removes that
// safety net. olderThan keeps recent deletions recoverable.

package relational

import (
	"context"
	"fmt"
	"time"
)

// Vacuum permanently removes soft-deleted rows. If olderThan is non-nil,
// only rows deleted before that duration ago are removed. Returns the
// number of rows removed.
func (s *Store) Vacuum(ctx context.Context, olderThan *time.Duration) (int64, error) {
	q := `DELETE FROM documents WHERE deleted_at IS NOT NULL`
	var args []any
	if olderThan != nil {
		q += ` AND deleted_at < ?`
		args = append(args, toUnix(time.Now().Add(-*olderThan)))
	}

	result, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("vacuum documents: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("vacuum documents: %w", err)
	}
	return n, nil
}
