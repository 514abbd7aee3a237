// write.go implements record mutation for the content-addressed backend.
//
// Set is a compare-and-swap on the blob hash: under the repository lock it
// resolves the current hash, checks preconditions, writes the file and
// commits. Soft delete has no native equivalent in git, so it writes
// $deletedAt into the frontmatter and commits; the file stays in the tree.

package gitstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"github.com/jpl-au/docstore/internal/path"
	"github.com/jpl-au/docstore/internal/store"
)

const filePerms = 0o644

func (s *Store) lock(ctx context.Context) (func(), error) {
	s.mu.Lock()
	unlock, err := s.git.Lock(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return func() {
		unlock()
		s.mu.Unlock()
	}, nil
}

// Set writes the record at id as one commit.
func (s *Store) Set(ctx context.Context, id string, doc store.Document, opts store.SetOptions) (store.SetResult, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return store.SetResult{}, err
	}
	defer unlock()

	fs, err := s.resolve(ctx, id)
	if err != nil {
		return store.SetResult{}, err
	}

	var (
		cur    *store.Document
		hash   string
		target = path.File(id, s.ext)
	)
	if len(fs) > 0 {
		d, err := s.load(ctx, fs[0])
		if err != nil {
			return store.SetResult{}, err
		}
		cur, hash, target = &d, fs[0].hash, fs[0].path
	}
	live := cur != nil && cur.Live()

	switch {
	case opts.CreateOnly && live:
		return store.SetResult{}, fmt.Errorf("create %s: already exists: %w", id, store.ErrConflict)
	case opts.UpdateOnly && !live:
		return store.SetResult{}, fmt.Errorf("update %s: does not exist: %w", id, store.ErrConflict)
	case opts.Version != "" && !live:
		return store.SetResult{}, fmt.Errorf("update %s at version %s: does not exist: %w", id, opts.Version, store.ErrConflict)
	case opts.Version != "" && opts.Version != hash:
		return store.SetResult{}, fmt.Errorf("update %s: version %s is stale (current %s): %w", id, opts.Version, hash, store.ErrConflict)
	}

	now := time.Now().UTC()
	rec := doc.Clone()
	rec.CreatedAt = now
	if live && !cur.CreatedAt.IsZero() {
		rec.CreatedAt = cur.CreatedAt
	}
	rec.UpdatedAt = now
	rec.DeletedAt = nil

	data, err := Encode(rec)
	if err != nil {
		return store.SetResult{}, fmt.Errorf("set %s: %w", id, err)
	}
	if err := s.commitFile(ctx, target, data, "set "+id); err != nil {
		return store.SetResult{}, err
	}

	ver, err := s.git.BlobHash(ctx, s.ref(), target)
	if err != nil {
		return store.SetResult{}, fmt.Errorf("read version of %s: %w", id, err)
	}
	return store.SetResult{ID: id, Created: !live, Version: ver}, nil
}

// Delete removes every file for id (hard) or marks the record file deleted
// (soft), as one commit.
func (s *Store) Delete(ctx context.Context, id string, opts store.DeleteOptions) (store.DeleteResult, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return store.DeleteResult{}, err
	}
	defer unlock()

	fs, err := s.resolve(ctx, id)
	if err != nil {
		return store.DeleteResult{}, err
	}
	if len(fs) == 0 {
		return store.DeleteResult{ID: id}, nil
	}

	if !opts.Soft {
		if err := s.removeFiles(ctx, paths(fs), "delete "+id); err != nil {
			return store.DeleteResult{}, err
		}
		return store.DeleteResult{ID: id, Deleted: true}, nil
	}

	cur, err := s.load(ctx, fs[0])
	if err != nil {
		return store.DeleteResult{}, err
	}
	if !cur.Live() {
		return store.DeleteResult{ID: id}, nil
	}

	now := time.Now().UTC()
	cur.UpdatedAt = now
	cur.DeletedAt = &now
	data, err := Encode(cur)
	if err != nil {
		return store.DeleteResult{}, fmt.Errorf("soft delete %s: %w", id, err)
	}
	if err := s.commitFile(ctx, fs[0].path, data, "soft delete "+id); err != nil {
		return store.DeleteResult{}, err
	}
	return store.DeleteResult{ID: id, Deleted: true}, nil
}

// commitFile atomically writes one file, stages and commits it. On failure
// the file is restored to the branch head. Caller holds the lock.
func (s *Store) commitFile(ctx context.Context, rel string, data []byte, msg string) error {
	full := filepath.Join(s.git.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", rel, err)
	}
	if err := atomic.WriteFile(full, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	// atomic.WriteFile doesn't set permissions for new files
	if err := os.Chmod(full, filePerms); err != nil {
		return fmt.Errorf("chmod %s: %w", rel, err)
	}

	if err := s.git.Add(ctx, rel); err != nil {
		s.git.Restore(context.WithoutCancel(ctx), s.ref(), rel)
		return fmt.Errorf("stage %s: %w", rel, err)
	}
	if err := s.git.Commit(ctx, "docstore: "+msg); err != nil {
		s.git.Restore(context.WithoutCancel(ctx), s.ref(), rel)
		return fmt.Errorf("commit %s: %w", rel, err)
	}
	return nil
}

// removeFiles removes files and commits. Caller holds the lock.
func (s *Store) removeFiles(ctx context.Context, rels []string, msg string) error {
	if err := s.git.Rm(ctx, rels...); err != nil {
		return fmt.Errorf("remove %v: %w", rels, err)
	}
	if err := s.git.Commit(ctx, "docstore: "+msg); err != nil {
		s.git.Restore(context.WithoutCancel(ctx), s.ref(), rels...)
		return fmt.Errorf("commit removal of %v: %w", rels, err)
	}
	return nil
}
