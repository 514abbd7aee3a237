// Package publish stages documents as Actions, reports on them, and runs
// the processor that materialises them. All three need the analytical
// backend; other backends return service.ErrUnsupported.
package publish

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/format"
	"github.com/jpl-au/docstore/internal/processor"
	"github.com/jpl-au/docstore/internal/progress"
	"github.com/jpl-au/docstore/internal/service"
)

// Run validates body and stages it as one pending Action.
func Run(ctx context.Context, w io.Writer, svc service.Service, body analytical.PublishBody) (*analytical.Action, error) {
	req, err := body.Request()
	if err != nil {
		return nil, err
	}
	a, err := svc.Publish(ctx, req)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Staged %d document(s) as action %s\n", a.Total, a.ID)
	return a, nil
}

// Show prints one Action in detail.
func Show(ctx context.Context, w io.Writer, svc service.Service, id string) (*analytical.Action, error) {
	a, err := svc.Action(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: %s", analytical.ErrActionNotFound, id)
	}
	return a, format.Action(w, a)
}

// List prints the Actions f selects.
func List(ctx context.Context, w io.Writer, svc service.Service, f analytical.ActionFilter) ([]analytical.Action, error) {
	actions, err := svc.Actions(ctx, f)
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []analytical.Action{}
	}
	return actions, format.Actions(w, actions)
}

// ProcessOptions configures Process.
type ProcessOptions struct {
	Run    processor.RunOptions
	Every  time.Duration // Repeat until ctx is done; 0 runs once
	Status io.Writer     // Per-Action progress; nil disables it
}

// Process runs the processor once, or every opts.Every until ctx is
// cancelled, and returns the combined report.
func Process(ctx context.Context, w io.Writer, svc service.Service, opts ProcessOptions) (processor.Report, error) {
	total := processor.Report{Outcomes: []processor.Outcome{}}
	for {
		rep, err := processOnce(ctx, w, svc, opts)
		total.Claimed += rep.Claimed
		total.Completed += rep.Completed
		total.Failed += rep.Failed
		total.Outcomes = append(total.Outcomes, rep.Outcomes...)
		if err != nil && opts.Every > 0 && ctx.Err() != nil {
			return total, nil
		}
		if err != nil || opts.Every <= 0 {
			return total, err
		}

		select {
		case <-ctx.Done():
			return total, nil
		case <-time.After(opts.Every):
		}
	}
}

func processOnce(ctx context.Context, w io.Writer, svc service.Service, opts ProcessOptions) (processor.Report, error) {
	var (
		prog    *progress.Progress
		current string
	)
	observe := func(a *analytical.Action, done int) {
		if opts.Status == nil {
			return
		}
		if a.ID != current {
			if prog != nil {
				prog.Done()
			}
			current = a.ID
			prog = progress.New(opts.Status, "Processing "+a.ID, a.Total)
		}
		prog.Set(done)
		prog.Print()
	}

	rep, err := svc.Process(ctx, opts.Run, observe)
	if prog != nil {
		prog.Done()
	}
	if err != nil {
		return rep, err
	}

	for _, o := range rep.Outcomes {
		if o.Error != "" {
			fmt.Fprintf(w, "%s  %-9s  %s\n", o.ID, o.Status, o.Error)
			continue
		}
		fmt.Fprintf(w, "%s  %-9s  %d thing(s)\n", o.ID, o.Status, o.Things)
	}
	if rep.Claimed == 0 && opts.Every <= 0 {
		fmt.Fprintln(w, "No pending actions")
	}
	return rep, nil
}
