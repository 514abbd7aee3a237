// Package query is the backend-agnostic List/Search engine.
//
// Backends hand it a candidate set in their native order. The engine
// filters, scores, sorts and slices that set, so type, prefix, where,
// ranking and pagination semantics are identical on every backend
// regardless of what the backend can push down itself.
//
// The pipeline, in order:
//  1. Types set membership
//  2. Id prefix
//  3. Where predicates (all must match)
//  4. Scoring, dropping zero scores (Search only)
//  5. Stable sort with id ascending as the final tiebreak
//  6. Slice [Offset, Offset+Limit)
package query

import (
	"slices"
	"strings"

	"github.com/jpl-au/docstore/internal/path"
	"github.com/jpl-au/docstore/internal/store"
)

// List filters, sorts and slices docs according to f. docs is not modified.
func List(docs []store.Document, f store.Filter) store.Page {
	matched := Filter(docs, f)
	Sort(matched, f.SortBy, f.SortOrder)
	return Paginate(matched, f.Limit, f.Offset)
}

// Search filters docs by q.Filter, scores the survivors against q.Text and
// returns them ranked by score descending, then id ascending. Documents
// scoring zero are dropped, so an empty query matches nothing.
func Search(docs []store.Document, q store.Query) store.Page {
	terms := Terms(q.Text)
	if len(terms) == 0 {
		return store.Page{Documents: []store.Document{}}
	}

	var scored []store.Document
	for _, d := range Filter(docs, q.Filter) {
		s := Score(&d, terms, q.Fields)
		if s <= 0 {
			continue
		}
		d.Score = s
		scored = append(scored, d)
	}

	slices.SortStableFunc(scored, func(a, b store.Document) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return Paginate(scored, q.Limit, q.Offset)
}

// Filter returns copies of the live docs that pass the type, prefix and
// where stages, preserving input order.
func Filter(docs []store.Document, f store.Filter) []store.Document {
	out := make([]store.Document, 0, len(docs))
	for i := range docs {
		if Match(&docs[i], f) {
			out = append(out, docs[i].Clone())
		}
	}
	return out
}

// Match reports whether a single document passes f's filter stages.
// Soft-deleted documents never match.
func Match(d *store.Document, f store.Filter) bool {
	if !d.Live() {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, d.Type) {
		return false
	}
	if f.Prefix != "" && !path.HasPrefix(d.ID, f.Prefix) {
		return false
	}
	return Where(d.Data, f.Where)
}

// Paginate slices docs to [offset, offset+limit) and fills Total/HasMore.
// limit <= 0 returns everything from offset.
func Paginate(docs []store.Document, limit, offset int) store.Page {
	total := len(docs)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	page := make([]store.Document, end-offset)
	copy(page, docs[offset:end])
	return store.Page{
		Documents: page,
		Total:     total,
		HasMore:   limit > 0 && offset+limit < total,
	}
}
