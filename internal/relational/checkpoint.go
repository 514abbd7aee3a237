// checkpoint.go implements WAL checkpointing, called on graceful shutdown of
// long-running processes (serve, mcp).

package relational

import (
	"context"
	"fmt"
)

// Checkpoint writes all WAL data back to the main database file and
// truncates the WAL, removing the -wal and -shm files.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}
