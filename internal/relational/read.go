// read.go implements record retrieval for the relational backend.
//
// Liveness, type and prefix filters are pushed into SQL; where predicates,
// sorting, scoring and pagination run in the shared query engine so the
// results match the other backends exactly.

package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jpl-au/docstore/internal/query"
	"github.com/jpl-au/docstore/internal/store"
)

// Get returns the live record for id, or nil if it is missing or
// soft-deleted.
func (s *Store) Get(ctx context.Context, id string) (*store.Document, error) {
	return s.get(ctx, id, false)
}

// RawGet returns the row for id including soft-deleted state.
func (s *Store) RawGet(ctx context.Context, id string) (*store.Document, error) {
	return s.get(ctx, id, true)
}

func (s *Store) get(ctx context.Context, id string, includeDeleted bool) (*store.Document, error) {
	q := `SELECT ` + docColumns + ` FROM documents WHERE id = ?`
	if !includeDeleted {
		q += ` AND deleted_at IS NULL`
	}
	d, err := scanDoc(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return &d, nil
}

// List returns one page of live records matching f.
func (s *Store) List(ctx context.Context, f store.Filter) (store.Page, error) {
	docs, err := s.candidates(ctx, f)
	if err != nil {
		return store.Page{}, err
	}
	return query.List(docs, f), nil
}

// Search returns one page of live records ranked against q.
func (s *Store) Search(ctx context.Context, q store.Query) (store.Page, error) {
	docs, err := s.candidates(ctx, q.Filter)
	if err != nil {
		return store.Page{}, err
	}
	return query.Search(docs, q), nil
}

// candidates selects live rows narrowed by type and prefix, in insertion
// order.
func (s *Store) candidates(ctx context.Context, f store.Filter) ([]store.Document, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + docColumns + ` FROM documents WHERE deleted_at IS NULL`)
	var args []any

	if len(f.Types) > 0 {
		b.WriteString(` AND type IN (?` + strings.Repeat(`, ?`, len(f.Types)-1) + `)`)
		for _, t := range f.Types {
			args = append(args, t)
		}
	}
	if f.Prefix != "" {
		b.WriteString(` AND id LIKE ? ESCAPE '\'`)
		args = append(args, likeEscape(f.Prefix)+"%")
	}
	b.WriteString(` ORDER BY seq`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// likeEscape escapes LIKE wildcards so a prefix such as "50%_off" matches
// literally.
func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
