// Package find runs ranked search and formats the hits.
//
// This wraps the service's Search with output formatting, separating the
// ranking logic from presentation.
package find

import (
	"context"
	"io"

	"github.com/jpl-au/docstore/internal/format"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// Options configures a search operation.
type Options struct {
	Query   store.Query
	IDsOnly bool // Only output ids
}

// Result contains one page of ranked records.
type Result struct {
	Page store.Page
}

// ToJSON converts the result to its API representation with scores.
func (r Result) ToJSON() store.PageJSON {
	return r.Page.ToJSON(true)
}

// Run searches records and writes the hits to w.
func Run(ctx context.Context, w io.Writer, svc service.Service, opts Options) (Result, error) {
	var result Result

	page, err := svc.Search(ctx, opts.Query)
	if err != nil {
		return result, err
	}
	result.Page = page

	if opts.IDsOnly {
		err = format.IDs(w, page.Documents)
	} else {
		err = format.SearchResults(w, page.Documents, opts.Query.Text)
	}
	if err != nil {
		return result, err
	}
	format.PageFooter(w, page, opts.Query.Offset)
	return result, nil
}
