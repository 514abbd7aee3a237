// Package service defines the shared interface for record operations.
// Commands, the HTTP handler, and MCP tools depend on this interface rather
// than on a concrete backend, so every surface gets the same validation,
// audit logging and timeouts.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/processor"
	"github.com/jpl-au/docstore/internal/store"
)

// ErrUnsupported is returned for operations the configured backend cannot
// perform, such as publishing to a non-analytical backend.
var ErrUnsupported = errors.New("not supported by this backend")

// Service defines all record operations.
//
// Obtain one with document.New() (discovery) or document.Open(); always
// defer Close().
//
//	svc, err := document.New(document.Options{Actor: "alice"})
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//	doc, err := svc.Get(ctx, "posts/hello")
type Service interface {
	// Close releases backend resources.
	Close() error

	// Kind identifies the configured backend.
	Kind() store.Kind

	// Root returns the project root directory.
	Root() string

	// NS returns the analytical namespace this service is scoped to, or ""
	// for other backends.
	NS() string

	// In returns a service sharing this backend, scoped to namespace ns.
	// An empty ns returns the receiver. ErrUnsupported unless analytical.
	In(ns string) (Service, error)

	// Get returns the live record for id, or nil if absent.
	Get(ctx context.Context, id string) (*store.Document, error)

	// RawGet returns the stored record including soft-deleted state.
	RawGet(ctx context.Context, id string) (*store.Document, error)

	// Set writes the record at id under opts' preconditions.
	Set(ctx context.Context, id string, doc store.Document, opts store.SetOptions) (store.SetResult, error)

	// SetBatch writes several records, reporting each outcome.
	SetBatch(ctx context.Context, items []store.BatchItem) []store.BatchResult

	// Delete removes (or soft-deletes) the record at id.
	Delete(ctx context.Context, id string, opts store.DeleteOptions) (store.DeleteResult, error)

	// List returns one page of live records.
	List(ctx context.Context, f store.Filter) (store.Page, error)

	// Search returns one page of live records ranked against q.
	Search(ctx context.Context, q store.Query) (store.Page, error)

	// Vacuum permanently removes soft-deleted artifacts.
	Vacuum(ctx context.Context, olderThan *time.Duration) (int64, error)

	// Publish stages documents for the processor. Analytical only.
	Publish(ctx context.Context, req analytical.PublishRequest) (*analytical.Action, error)

	// Action returns one staged Action. Analytical only.
	Action(ctx context.Context, id string) (*analytical.Action, error)

	// Actions lists staged Actions. Analytical only.
	Actions(ctx context.Context, f analytical.ActionFilter) ([]analytical.Action, error)

	// Process runs the processor once. Analytical only.
	Process(ctx context.Context, opts processor.RunOptions, observe processor.Observer) (processor.Report, error)

	// Relate records an edge between records. Analytical only.
	Relate(ctx context.Context, r analytical.Relation) error

	// Unrelate removes an edge. Analytical only.
	Unrelate(ctx context.Context, typ, from, to string) error

	// Relations returns the live edges leaving (outgoing) or arriving at id.
	// Analytical only.
	Relations(ctx context.Context, id, typ string, incoming bool) ([]analytical.Relation, error)
}
