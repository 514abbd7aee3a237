// read.go implements the read operations: Get, RawGet, List and Search.

package document

import (
	"context"
	"fmt"

	"github.com/jpl-au/docstore/internal/path"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/validate"
)

// Get returns the live record for id, or nil.
func (s *Service) Get(ctx context.Context, id string) (*store.Document, error) {
	l := s.event("get", "read").ID(id)
	doc, err := s.get(ctx, id, false)
	if err == nil && doc != nil {
		l.Resolved(doc.ID).ResultVersion(doc.Version)
	}
	l.Write(err)
	return doc, err
}

// RawGet returns the stored record for id including soft-deleted state.
func (s *Service) RawGet(ctx context.Context, id string) (*store.Document, error) {
	l := s.event("get", "read").ID(id).Detail("raw", true)
	doc, err := s.get(ctx, id, true)
	if err == nil && doc != nil {
		l.ResultVersion(doc.Version)
	}
	l.Write(err)
	return doc, err
}

func (s *Service) get(ctx context.Context, id string, raw bool) (*store.Document, error) {
	id, err := validate.Path(id, s.cfg.MaxPath())
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.io(ctx)
	defer cancel()

	if !raw {
		return s.adapter.Get(ctx, id)
	}
	rr, ok := s.adapter.(store.RawReader)
	if !ok {
		return nil, fmt.Errorf("raw read: %w", service.ErrUnsupported)
	}
	return rr.RawGet(ctx, id)
}

// List returns one page of live records.
func (s *Service) List(ctx context.Context, f store.Filter) (store.Page, error) {
	f.Prefix = path.NormalisePrefix(f.Prefix)
	ctx, cancel := s.io(ctx)
	defer cancel()

	page, err := s.adapter.List(ctx, f)
	s.event("list", "list").
		ID(f.Prefix).
		Detail("types", f.Types).
		Detail("count", page.Total).
		Write(err)
	return page, err
}

// Search returns one page of live records ranked against q.
func (s *Service) Search(ctx context.Context, q store.Query) (store.Page, error) {
	q.Prefix = path.NormalisePrefix(q.Prefix)
	ctx, cancel := s.io(ctx)
	defer cancel()

	page, err := s.adapter.Search(ctx, q)
	s.event("search", "search").
		ID(q.Prefix).
		Detail("query", q.Text).
		Detail("count", page.Total).
		Write(err)
	return page, err
}
