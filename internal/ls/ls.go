// Package ls lists records one page at a time.
//
// Filtering, ordering and slicing happen in the service so every backend
// returns the same page; this package only chooses the presentation.
package ls

import (
	"context"
	"fmt"
	"io"

	"github.com/jpl-au/docstore/internal/format"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// Layout selects the text presentation.
type Layout string

const (
	LayoutIDs  Layout = ""
	LayoutLong Layout = "long"
	LayoutTree Layout = "tree"
)

// Options configures a list operation.
type Options struct {
	Filter store.Filter
	Layout Layout
}

// Result contains one page of records.
type Result struct {
	Page   store.Page
	Offset int
}

// ToJSON converts the result to its API representation.
func (r Result) ToJSON() store.PageJSON {
	return r.Page.ToJSON(false)
}

// Run lists records and writes the formatted page to w.
func Run(ctx context.Context, w io.Writer, svc service.Service, opts Options) (Result, error) {
	result := Result{Offset: opts.Filter.Offset}

	page, err := svc.List(ctx, opts.Filter)
	if err != nil {
		return result, err
	}
	result.Page = page

	switch opts.Layout {
	case LayoutIDs:
		err = format.IDs(w, page.Documents)
	case LayoutLong:
		err = format.Long(w, page.Documents)
	case LayoutTree:
		err = format.Tree(w, page.Documents)
	default:
		return result, fmt.Errorf("unknown layout %q", opts.Layout)
	}
	if err != nil {
		return result, err
	}
	format.PageFooter(w, page, opts.Filter.Offset)
	return result, nil
}
