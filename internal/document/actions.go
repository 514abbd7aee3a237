// actions.go exposes the analytical staging queue and the processor.
// Every operation here returns service.ErrUnsupported on other backends.

package document

import (
	"context"
	"fmt"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/processor"
	"github.com/jpl-au/docstore/internal/validate"
)

// Publish validates and stages documents. An empty req.NS selects the
// service's namespace; an empty req.Actor the service's actor.
func (s *Service) Publish(ctx context.Context, req analytical.PublishRequest) (*analytical.Action, error) {
	l := s.event("publish", "publish").Detail("documents", len(req.Documents))
	a, err := s.publish(ctx, req)
	if err == nil {
		l.ID(a.ID).Detail("action", a.ID)
	}
	l.Write(err)
	return a, err
}

func (s *Service) publish(ctx context.Context, req analytical.PublishRequest) (*analytical.Action, error) {
	as, err := s.requireAnalytical("publish")
	if err != nil {
		return nil, err
	}
	if req.NS == "" {
		req.NS = s.ns
	}
	if req.Actor == "" {
		req.Actor = s.opts.Actor
	}

	docs := make([]analytical.StagedDoc, len(req.Documents))
	for i, d := range req.Documents {
		id, err := validate.Path(d.ID, s.cfg.MaxPath())
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if err := validate.Content(&d.Content, s.cfg.MaxContent()); err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		d.ID = id
		docs[i] = d
	}
	req.Documents = docs

	ctx, cancel := s.io(ctx)
	defer cancel()
	return as.Publish(ctx, req)
}

// Action returns one staged Action.
func (s *Service) Action(ctx context.Context, id string) (*analytical.Action, error) {
	as, err := s.requireAnalytical("action")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.io(ctx)
	defer cancel()
	return as.GetAction(ctx, id)
}

// Actions lists staged Actions oldest first.
func (s *Service) Actions(ctx context.Context, f analytical.ActionFilter) ([]analytical.Action, error) {
	as, err := s.requireAnalytical("actions")
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.io(ctx)
	defer cancel()
	return as.ListActions(ctx, f)
}

// Process runs the processor once. opts.Limit <= 0 uses processor.limit
// from config. The run is bounded by the lease, not the I/O timeout.
func (s *Service) Process(ctx context.Context, opts processor.RunOptions, observe processor.Observer) (processor.Report, error) {
	l := s.event("process", "process").Detail("ns", opts.NS)
	as, err := s.requireAnalytical("process")
	if err != nil {
		l.Write(err)
		return processor.Report{}, err
	}
	if opts.Limit <= 0 {
		opts.Limit = s.cfg.ProcessorLimit()
	}

	p := processor.New(as,
		processor.WithLease(s.cfg.ProcessorLease()),
		processor.WithMaxContent(s.cfg.MaxContent()),
		processor.WithLogger(s.logger),
		processor.WithObserver(observe),
	)
	rep, err := p.Run(ctx, opts)
	l.Detail("claimed", rep.Claimed).
		Detail("completed", rep.Completed).
		Detail("failed", rep.Failed).
		Write(err)
	return rep, err
}
