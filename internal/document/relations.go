// relations.go exposes analytical relations, scoped to the service's
// namespace.

package document

import (
	"context"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/validate"
)

func (s *Service) things(op string) (*analytical.Things, error) {
	as, err := s.requireAnalytical(op)
	if err != nil {
		return nil, err
	}
	return as.Ns(s.ns), nil
}

// Relate records an edge.
func (s *Service) Relate(ctx context.Context, r analytical.Relation) error {
	t, err := s.things("relate")
	if err == nil {
		ctx, cancel := s.io(ctx)
		defer cancel()
		err = t.Relate(ctx, r)
	}
	s.event("relate", "link").ID(r.From).Detail("to", r.To).Detail("type", r.Type).Write(err)
	return err
}

// Unrelate removes an edge.
func (s *Service) Unrelate(ctx context.Context, typ, from, to string) error {
	t, err := s.things("unrelate")
	if err == nil {
		ctx, cancel := s.io(ctx)
		defer cancel()
		err = t.Unrelate(ctx, typ, from, to)
	}
	s.event("unrelate", "unlink").ID(from).Detail("to", to).Detail("type", typ).Write(err)
	return err
}

// Relations returns live edges leaving id, or arriving at it when
// incoming is set. An empty typ matches every type.
func (s *Service) Relations(ctx context.Context, id, typ string, incoming bool) ([]analytical.Relation, error) {
	t, err := s.things("relations")
	if err != nil {
		return nil, err
	}
	id, err = validate.Path(id, s.cfg.MaxPath())
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.io(ctx)
	defer cancel()
	if incoming {
		return t.Incoming(ctx, id, typ)
	}
	return t.Outgoing(ctx, id, typ)
}
