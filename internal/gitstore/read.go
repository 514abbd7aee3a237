// read.go implements record retrieval for the content-addressed backend.

package gitstore

import (
	"context"
	"fmt"

	"github.com/jpl-au/docstore/internal/query"
	"github.com/jpl-au/docstore/internal/store"
)

// Get returns the live record for id, or nil if it is missing or
// soft-deleted.
func (s *Store) Get(ctx context.Context, id string) (*store.Document, error) {
	d, err := s.RawGet(ctx, id)
	if err != nil || d == nil || !d.Live() {
		return nil, err
	}
	return d, nil
}

// RawGet returns the record file for id at the branch head, including a
// soft-deleted one.
func (s *Store) RawGet(ctx context.Context, id string) (*store.Document, error) {
	fs, err := s.resolve(ctx, id)
	if err != nil || len(fs) == 0 {
		return nil, err
	}
	d, err := s.load(ctx, fs[0])
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) load(ctx context.Context, f file) (store.Document, error) {
	blobs, err := s.git.CatBlobs(ctx, []string{f.hash})
	if err != nil {
		return store.Document{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	b, ok := blobs[f.hash]
	if !ok {
		return store.Document{}, fmt.Errorf("read %s: blob %s missing", f.path, f.hash)
	}
	return decodeFile(f, b)
}

func decodeFile(f file, b []byte) (store.Document, error) {
	d, err := Decode(b)
	if err != nil {
		return d, fmt.Errorf("decode %s: %w", f.path, err)
	}
	d.ID = f.id
	d.Version = f.hash
	return d, nil
}

// List returns one page of live records matching f, in tree path order
// unless a sort key is given.
func (s *Store) List(ctx context.Context, f store.Filter) (store.Page, error) {
	docs, _, err := s.materialise(ctx)
	if err != nil {
		return store.Page{}, err
	}
	return query.List(docs, f), nil
}

// Search scores every live record at the branch head with the shared
// engine, so ranking and case folding match the other backends.
func (s *Store) Search(ctx context.Context, q store.Query) (store.Page, error) {
	if len(query.Terms(q.Text)) == 0 {
		return query.Search(nil, q), nil
	}
	docs, _, err := s.materialise(ctx)
	if err != nil {
		return store.Page{}, err
	}
	return query.Search(docs, q), nil
}

// materialise reads every record at the branch head in one cat-file call.
// Soft-deleted records are included. Files that fail to decode are logged
// and skipped so one hand-edited file cannot break listings. The grouped
// tree is returned alongside.
func (s *Store) materialise(ctx context.Context) ([]store.Document, map[string][]file, error) {
	ids, files, err := s.tree(ctx)
	if err != nil {
		return nil, nil, err
	}

	heads := make([]file, 0, len(ids))
	for _, id := range ids {
		heads = append(heads, files[id][0])
	}

	hashes := make([]string, 0, len(heads))
	for _, f := range heads {
		hashes = append(hashes, f.hash)
	}
	blobs, err := s.git.CatBlobs(ctx, hashes)
	if err != nil {
		return nil, nil, fmt.Errorf("read blobs: %w", err)
	}

	docs := make([]store.Document, 0, len(heads))
	for _, f := range heads {
		b, ok := blobs[f.hash]
		if !ok {
			continue
		}
		d, err := decodeFile(f, b)
		if err != nil {
			s.logger.Warn("skipping unreadable record", "path", f.path, "error", err)
			continue
		}
		docs = append(docs, d)
	}
	return docs, files, nil
}
