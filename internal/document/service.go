// Package document provides the record service shared by every surface.
// It opens the configured backend, then wraps it with id normalisation,
// size limits, per-operation timeouts and audit logging.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/gitstore"
	"github.com/jpl-au/docstore/internal/log"
	"github.com/jpl-au/docstore/internal/relational"
	"github.com/jpl-au/docstore/internal/repo"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

const DefaultActor = "unknown"

// Options configures how a Service attributes and reports operations.
type Options struct {
	Actor  string       // recorded in the audit log and on git commits
	Source string       // audit log surface prefix: "cli", "http", "mcp"
	NS     string       // analytical namespace override
	Logger *slog.Logger // diagnostics
}

// Service implements service.Service over one backend.
type Service struct {
	adapter store.Adapter
	kind    store.Kind
	root    string
	ns      string
	cfg     *config.Config
	opts    Options
	logger  *slog.Logger

	// Set on the Service that owns the backend; namespace siblings
	// created by In leave closer nil.
	closer     func() error
	relational *relational.Store
	analytical *analytical.Store
}

var _ service.Service = (*Service)(nil)

// New discovers the project from the working directory (or DOCSTORE_DIR),
// loads its config and opens the configured backend.
func New(opts Options) (*Service, error) {
	root, err := repo.Discover()
	if err != nil {
		return nil, err
	}
	return OpenRoot(context.Background(), root, opts)
}

// OpenRoot loads the config of the project at root and opens its backend.
func OpenRoot(ctx context.Context, root string, opts Options) (*Service, error) {
	cfg, err := config.LoadProject(root)
	if err != nil {
		return nil, err // config.Load provides detailed, actionable error messages
	}
	return Open(ctx, root, cfg, opts)
}

// Open opens the backend cfg selects for the project at root. Relative
// backend paths resolve against root.
func Open(ctx context.Context, root string, cfg *config.Config, opts Options) (*Service, error) {
	if opts.Actor == "" {
		opts.Actor = cfg.Author.Name
	}
	if opts.Actor == "" {
		opts.Actor = DefaultActor
	}
	if opts.Source == "" {
		opts.Source = "document"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Service{
		kind:   cfg.Kind(),
		root:   root,
		cfg:    cfg,
		opts:   opts,
		logger: logger,
	}

	switch s.kind {
	case store.KindRelational:
		rs, err := relational.Open(config.Resolve(root, cfg.RelationalFile()))
		if err != nil {
			return nil, err
		}
		if err := rs.Init(); err != nil {
			rs.Close()
			return nil, fmt.Errorf("init relational store: %w", err)
		}
		s.adapter, s.relational = rs, rs
		s.closer = s.closeRelational

	case store.KindGit:
		gs, err := gitstore.Open(ctx, config.Resolve(root, cfg.GitDir()),
			gitstore.WithBranch(cfg.GitBranch()),
			gitstore.WithExtension(cfg.GitExtension()),
			gitstore.WithTimeout(cfg.IOTimeout()),
			gitstore.WithLogger(logger),
			gitstore.WithCommitter(opts.Actor, cfg.Author.Email),
		)
		if err != nil {
			return nil, err
		}
		s.adapter = gs
		s.closer = gs.Close

	case store.KindAnalytical:
		ns := opts.NS
		if ns == "" {
			ns = cfg.Namespace()
		}
		as, err := analytical.Open(config.Resolve(root, cfg.AnalyticalFile()), ns)
		if err != nil {
			return nil, err
		}
		s.adapter, s.analytical = as, as
		s.ns = as.NS()
		s.closer = as.Close

	default:
		return nil, fmt.Errorf("%w: backend %q", config.ErrInvalidValue, s.kind)
	}
	return s, nil
}

// Init creates a project under dir with the given backend (the configured
// default when empty) and creates the backend's files. Returns the
// project root.
func Init(ctx context.Context, dir string, kind store.Kind, force bool) (string, error) {
	root, err := repo.Init(dir, force)
	if err != nil {
		return "", err
	}
	cfg, err := config.LoadFile(repo.ConfigPath(root))
	if err != nil {
		return "", err
	}
	if kind != "" {
		if err := cfg.Set("backend.kind", string(kind)); err != nil {
			return "", err
		}
	}
	if err := cfg.SaveFile(repo.ConfigPath(root)); err != nil {
		return "", err
	}

	svc, err := Open(ctx, root, cfg, Options{})
	if err != nil {
		return "", err
	}
	return root, svc.Close()
}

// Close checkpoints the relational WAL, then closes the backend. Closing a
// namespace sibling is a no-op.
func (s *Service) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *Service) closeRelational() error {
	ctx, cancel := s.io(context.Background())
	defer cancel()
	if err := s.relational.Checkpoint(ctx); err != nil {
		log.Event(s.opts.Source+":close", "checkpoint").Write(err)
	}
	return s.relational.Close()
}

// Kind identifies the configured backend.
func (s *Service) Kind() store.Kind { return s.kind }

// Root returns the project root directory.
func (s *Service) Root() string { return s.root }

// NS returns the analytical namespace, or "" for other backends.
func (s *Service) NS() string { return s.ns }

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// Actor returns who this service attributes writes to.
func (s *Service) Actor() string { return s.opts.Actor }

// In returns a sibling scoped to namespace ns.
func (s *Service) In(ns string) (service.Service, error) {
	if ns == "" || ns == s.ns {
		return s, nil
	}
	if s.analytical == nil {
		return nil, fmt.Errorf("namespace %q: %w", ns, service.ErrUnsupported)
	}
	sib := *s
	sib.ns = ns
	sib.adapter = s.analytical.Namespace(ns)
	sib.closer = nil
	return &sib, nil
}

// io derives the per-operation deadline.
func (s *Service) io(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.IOTimeout())
}

// event starts an audit entry tagged with this service's source, actor
// and namespace.
func (s *Service) event(op, action string) *log.Builder {
	return log.Event(s.opts.Source+":"+op, action).Actor(s.opts.Actor).NS(s.ns)
}

// requireAnalytical returns the analytical store or ErrUnsupported.
func (s *Service) requireAnalytical(op string) (*analytical.Store, error) {
	if s.analytical == nil {
		return nil, fmt.Errorf("%s on %s backend: %w", op, s.kind, service.ErrUnsupported)
	}
	return s.analytical, nil
}

// IsUnsupported reports whether err means the backend lacks the operation.
func IsUnsupported(err error) bool {
	return errors.Is(err, service.ErrUnsupported)
}
