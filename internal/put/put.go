// Package put writes one record under optimistic-concurrency preconditions.
package put

import (
	"context"
	"fmt"
	"io"

	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// Options configures a put operation.
type Options struct {
	Document store.Document
	Set      store.SetOptions
}

// Run writes the record at id and reports the outcome to w.
func Run(ctx context.Context, w io.Writer, svc service.Service, id string, opts Options) (store.SetResult, error) {
	res, err := svc.Set(ctx, id, opts.Document, opts.Set)
	if err != nil {
		return res, err
	}
	verb := "Updated"
	if res.Created {
		verb = "Created"
	}
	fmt.Fprintf(w, "%s %s (version %s)\n", verb, res.ID, res.Version)
	return res, nil
}
