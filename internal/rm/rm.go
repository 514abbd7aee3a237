// Package rm deletes records.
//
// A plain delete removes the record's artifact; a soft delete marks it so
// it stays readable through raw reads until vacuum removes it.
package rm

import (
	"context"
	"fmt"
	"io"

	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// Options configures a delete operation.
type Options struct {
	Soft      bool // Mark deleted instead of removing
	Recursive bool // Treat each argument as an id prefix
}

// Result contains the outcome of a delete operation.
type Result struct {
	Deleted []string `json:"deleted"`
	Missing []string `json:"missing,omitempty"` // ids that were already absent
	Soft    bool     `json:"soft,omitempty"`
}

// Run deletes each id (or every live record under each prefix when
// Recursive). Deleting an absent id is not an error.
func Run(ctx context.Context, w io.Writer, svc service.Service, ids []string, opts Options) (Result, error) {
	result := Result{Deleted: []string{}, Soft: opts.Soft}

	targets := ids
	if opts.Recursive {
		var err error
		if targets, err = expand(ctx, svc, ids); err != nil {
			return result, err
		}
		if len(targets) == 0 {
			fmt.Fprintln(w, "No records matched")
			return result, nil
		}
	}

	verb := "Deleted"
	if opts.Soft {
		verb = "Soft-deleted"
	}
	for _, id := range targets {
		res, err := svc.Delete(ctx, id, store.DeleteOptions{Soft: opts.Soft})
		if err != nil {
			return result, fmt.Errorf("delete %s: %w", id, err)
		}
		if !res.Deleted {
			result.Missing = append(result.Missing, res.ID)
			fmt.Fprintf(w, "Not found %s\n", res.ID)
			continue
		}
		result.Deleted = append(result.Deleted, res.ID)
		fmt.Fprintf(w, "%s %s\n", verb, res.ID)
	}
	return result, nil
}

func expand(ctx context.Context, svc service.Service, prefixes []string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range prefixes {
		page, err := svc.List(ctx, store.Filter{Prefix: p, SortBy: "id"})
		if err != nil {
			return nil, err
		}
		for _, d := range page.Documents {
			if !seen[d.ID] {
				seen[d.ID] = true
				ids = append(ids, d.ID)
			}
		}
	}
	return ids, nil
}
