// Package vacuum permanently removes soft-deleted records. Soft-deleted
// records stay recoverable through raw reads until vacuum removes them.
package vacuum

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jpl-au/docstore/internal/duration"
	"github.com/jpl-au/docstore/internal/progress"
	"github.com/jpl-au/docstore/internal/service"
)

// Options configures vacuum scope.
type Options struct {
	OlderThan *time.Duration // Retain recent deletions for recovery
	Status    io.Writer      // Spinner output; nil disables it
}

// Result reports what was removed.
type Result struct {
	Removed   int64  `json:"removed"`
	Backend   string `json:"backend"`
	OlderThan string `json:"olderThan,omitempty"`
}

// Run permanently removes soft-deleted artifacts and reports the count to
// w. This operation is irreversible.
func Run(ctx context.Context, w io.Writer, svc service.Service, opts Options) (Result, error) {
	result := Result{Backend: string(svc.Kind())}
	if opts.OlderThan != nil {
		result.OlderThan = duration.Format(*opts.OlderThan)
	}

	var spin *progress.Spinner
	if opts.Status != nil {
		spin = progress.NewSpinner(opts.Status, "Vacuuming")
		spin.Start()
	}
	n, err := svc.Vacuum(ctx, opts.OlderThan)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return result, err
	}

	result.Removed = n
	if n == 0 {
		fmt.Fprintln(w, "Nothing to vacuum")
	} else {
		fmt.Fprintf(w, "Vacuumed %d artifact(s)\n", n)
	}
	return result, nil
}
