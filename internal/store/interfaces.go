// interfaces.go defines the Adapter contract and the optional capabilities a
// backend may add on top of it.
//
// The core contract is deliberately small: every backend must answer Get,
// Set, Delete, List and Search with identical semantics. Capabilities that
// only some backends can offer (raw reads of soft-deleted artifacts,
// vacuuming, namespaces) are separate interfaces discovered with a type
// assertion, so consumers only depend on what they use.

package store

import (
	"context"
	"time"
)

// Adapter is the operation set every backend implements.
type Adapter interface {
	// Kind identifies the backend.
	Kind() Kind

	// Get returns the live record for id, or nil when it does not exist or
	// has been soft-deleted. A missing id is never an error.
	Get(ctx context.Context, id string) (*Document, error)

	// Set creates or replaces the record at id, honouring the preconditions
	// in opts. Every successful Set changes the version.
	Set(ctx context.Context, id string, doc Document, opts SetOptions) (SetResult, error)

	// Delete removes (or, with opts.Soft, marks) the record at id.
	Delete(ctx context.Context, id string, opts DeleteOptions) (DeleteResult, error)

	// List returns one page of live records matching f.
	List(ctx context.Context, f Filter) (Page, error)

	// Search returns one page of live records ranked against q.
	Search(ctx context.Context, q Query) (Page, error)

	// Close releases backend resources.
	Close() error
}

// RawReader exposes the backend's stored artifact for id regardless of its
// soft-delete state. Used for recovery and inspection.
type RawReader interface {
	RawGet(ctx context.Context, id string) (*Document, error)
}

// Vacuumer permanently removes soft-deleted artifacts. If olderThan is set,
// only artifacts deleted before that age are removed. Returns the number of
// artifacts removed.
type Vacuumer interface {
	Vacuum(ctx context.Context, olderThan *time.Duration) (int64, error)
}

// Namespacer is implemented by backends that partition records into
// namespaces within one physical store.
type Namespacer interface {
	Namespace(ns string) Adapter
}

// SortOrder is the direction of a List sort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Predicate is one exact-match condition on a dotted data path
// (e.g. "author.name").
type Predicate struct {
	Path  string
	Value any
}

// Filter selects, orders and slices records for List.
type Filter struct {
	Types     []string    // Match any of these types (empty matches all)
	Prefix    string      // Id prefix
	Where     []Predicate // All must match
	SortBy    string      // "id" or a data path; empty keeps backend order
	SortOrder SortOrder   // Asc (default) or Desc
	Limit     int         // <= 0 means no limit
	Offset    int
}

// Query is a ranked search over records matching the embedded Filter.
// Results are ordered by score, so Filter.SortBy is ignored.
type Query struct {
	Filter
	Text   string   // Whitespace-separated terms
	Fields []string // Data fields to search; content is always searched
}
