// vacuum.go hard-removes soft-deleted record files.

package gitstore

import (
	"context"
	"fmt"
	"time"
)

// Vacuum removes every file of each soft-deleted record in one commit. If
// olderThan is non-nil, only records deleted before that duration ago are
// removed. Returns the number of records removed.
func (s *Store) Vacuum(ctx context.Context, olderThan *time.Duration) (int64, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	docs, files, err := s.materialise(ctx)
	if err != nil {
		return 0, err
	}

	var cutoff time.Time
	if olderThan != nil {
		cutoff = time.Now().Add(-*olderThan)
	}

	var (
		rels []string
		n    int64
	)
	for _, d := range docs {
		if d.Live() {
			continue
		}
		if olderThan != nil && !d.DeletedAt.Before(cutoff) {
			continue
		}
		rels = append(rels, paths(files[d.ID])...)
		n++
	}
	if n == 0 {
		return 0, nil
	}

	if err := s.removeFiles(ctx, rels, fmt.Sprintf("vacuum %d record(s)", n)); err != nil {
		return 0, err
	}
	return n, nil
}
