// write.go implements the mutating operations. Ids and content are
// validated here so every backend sees normalised input.

package document

import (
	"context"
	"fmt"
	"time"

	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/validate"
)

// Set writes the record at id under opts' preconditions.
func (s *Service) Set(ctx context.Context, id string, doc store.Document, opts store.SetOptions) (store.SetResult, error) {
	l := s.event("set", "write").ID(id).Version(opts.Version)
	res, err := s.set(ctx, id, doc, opts)
	if err == nil {
		l.Resolved(res.ID).ResultVersion(res.Version).Detail("created", res.Created)
	}
	l.Write(err)
	return res, err
}

func (s *Service) set(ctx context.Context, id string, doc store.Document, opts store.SetOptions) (store.SetResult, error) {
	id, err := validate.Path(id, s.cfg.MaxPath())
	if err != nil {
		return store.SetResult{}, err
	}
	if err := validate.Content(&doc.Content, s.cfg.MaxContent()); err != nil {
		return store.SetResult{}, err
	}
	ctx, cancel := s.io(ctx)
	defer cancel()
	return s.adapter.Set(ctx, id, doc, opts)
}

// SetBatch writes items in order through Set, so each item is validated
// and audited on its own. Invalid items fail without stopping the batch;
// cancelling ctx fails the remainder.
func (s *Service) SetBatch(ctx context.Context, items []store.BatchItem) []store.BatchResult {
	return store.SetBatch(ctx, s, items)
}

// Delete removes or soft-deletes the record at id. A missing id reports
// Deleted false and is not an error.
func (s *Service) Delete(ctx context.Context, id string, opts store.DeleteOptions) (store.DeleteResult, error) {
	l := s.event("delete", "delete").ID(id).Detail("soft", opts.Soft)
	res, err := s.delete(ctx, id, opts)
	if err == nil {
		l.Resolved(res.ID).Detail("deleted", res.Deleted)
	}
	l.Write(err)
	return res, err
}

func (s *Service) delete(ctx context.Context, id string, opts store.DeleteOptions) (store.DeleteResult, error) {
	id, err := validate.Path(id, s.cfg.MaxPath())
	if err != nil {
		return store.DeleteResult{}, err
	}
	ctx, cancel := s.io(ctx)
	defer cancel()
	return s.adapter.Delete(ctx, id, opts)
}

// Vacuum permanently removes soft-deleted artifacts older than olderThan
// (all of them when nil). Vacuum is a maintenance pass and is not bound by
// the per-operation timeout.
func (s *Service) Vacuum(ctx context.Context, olderThan *time.Duration) (int64, error) {
	l := s.event("vacuum", "vacuum")
	if olderThan != nil {
		l.Detail("older_than", olderThan.String())
	}

	v, ok := s.adapter.(store.Vacuumer)
	if !ok {
		err := fmt.Errorf("vacuum: %w", service.ErrUnsupported)
		l.Write(err)
		return 0, err
	}
	n, err := v.Vacuum(ctx, olderThan)
	l.Detail("removed", n).Write(err)
	return n, err
}
