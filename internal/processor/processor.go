// Package processor materialises staged Actions into the analytical
// store.
//
// A run claims a batch of Actions with a fresh token and a lease, then
// expands each Action's documents one at a time. Every Action ends
// completed or failed on its own; a failure is recorded on the Action and
// never stops the rest of the batch. If a run dies, its Actions become
// claimable again once the lease lapses and the next run resumes them,
// skipping documents that were already written. A run stopped by its
// context hands its unfinished Actions straight back to pending.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/validate"
)

const (
	DefaultLimit = 100
	DefaultLease = 5 * time.Minute
)

// errLeaseLost is recorded in an Outcome when another run took over the
// Action before this run finished it.
var errLeaseLost = errors.New("claim lost to another run")

// Runs over the same namespace are serialised within the process.
var nsLocks sync.Map // ns -> *sync.Mutex

func lockNS(ns string) func() {
	m, _ := nsLocks.LoadOrStore(ns, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Observer is told after each document of an Action is handled.
type Observer func(a *analytical.Action, done int)

// Processor runs the Action state machine against one Store.
type Processor struct {
	store      *analytical.Store
	lease      time.Duration
	maxContent int64
	logger     *slog.Logger
	observe    Observer
}

// Option configures a Processor.
type Option func(*Processor)

// WithLease sets how long a claim stays exclusive.
func WithLease(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.lease = d
		}
	}
}

// WithLogger sets the logger for per-Action outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver registers a per-document callback.
func WithObserver(fn Observer) Option {
	return func(p *Processor) { p.observe = fn }
}

// WithMaxContent rejects documents whose content exceeds n bytes.
func WithMaxContent(n int64) Option {
	return func(p *Processor) { p.maxContent = n }
}

// New returns a Processor for s.
func New(s *analytical.Store, opts ...Option) *Processor {
	p := &Processor{
		store:  s,
		lease:  DefaultLease,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// RunOptions scopes one run.
type RunOptions struct {
	NS    string // empty processes every namespace
	Limit int    // <= 0 uses DefaultLimit
}

// Outcome is the result of one claimed Action.
type Outcome struct {
	ID     string            `json:"id"`
	NS     string            `json:"ns"`
	Status analytical.Status `json:"status"`
	Things int               `json:"things"`
	Error  string            `json:"error,omitempty"`
}

// Report summarises a run.
type Report struct {
	Claimed   int       `json:"claimed"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Run claims and processes one batch. The returned error covers the claim
// only; per-Action failures are in the Report.
func (p *Processor) Run(ctx context.Context, opts RunOptions) (Report, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	defer lockNS(opts.NS)()

	token := uuid.NewString()
	claimed, err := p.store.Claim(ctx, opts.NS, token, limit, p.lease)
	if err != nil {
		return Report{}, fmt.Errorf("claim: %w", err)
	}

	rep := Report{Claimed: len(claimed), Outcomes: []Outcome{}}
	for i := range claimed {
		out := p.process(ctx, &claimed[i], token)
		switch out.Status {
		case analytical.StatusCompleted:
			rep.Completed++
		case analytical.StatusFailed:
			rep.Failed++
		}
		rep.Outcomes = append(rep.Outcomes, out)
	}
	return rep, nil
}

func (p *Processor) process(ctx context.Context, a *analytical.Action, token string) Outcome {
	out := Outcome{ID: a.ID, NS: a.NS}
	log := p.logger.With("action", a.ID, "ns", a.NS)

	things, err := p.expand(ctx, a, token)
	if err == nil {
		var ok bool
		ok, err = p.store.Complete(ctx, a.ID, token, analytical.Result{Things: things})
		if err == nil && !ok {
			err = errLeaseLost
		}
		if err == nil {
			out.Status = analytical.StatusCompleted
			out.Things = things
			log.Info("action completed", "things", things)
			return out
		}
	}

	out.Error = err.Error()
	if errors.Is(err, errLeaseLost) {
		// The winning run owns the Action's status now.
		out.Status = analytical.StatusActive
		log.Warn("action lease lost")
		return out
	}
	// The state changes below must land even when ctx is the reason we
	// stopped.
	bg := context.WithoutCancel(ctx)
	if ctx.Err() != nil {
		out.Status = analytical.StatusPending
		if _, rerr := p.store.Release(bg, a.ID, token); rerr != nil {
			out.Status = analytical.StatusActive
			log.Error("release action", "err", rerr)
		}
		log.Info("action interrupted", "err", err)
		return out
	}
	out.Status = analytical.StatusFailed
	if _, ferr := p.store.Fail(bg, a.ID, token, err.Error()); ferr != nil {
		log.Error("record failure", "err", ferr)
	}
	log.Info("action failed", "err", err)
	return out
}

// expand materialises every document of a and returns the number of
// records the Action has written in total, including those written by an
// earlier interrupted run. Documents are validated before any is written.
func (p *Processor) expand(ctx context.Context, a *analytical.Action, token string) (int, error) {
	docs := make([]analytical.StagedDoc, len(a.Documents))
	for i, doc := range a.Documents {
		id, err := validate.Path(doc.ID, 0)
		if err != nil {
			return 0, fmt.Errorf("document %d: %w", i, err)
		}
		doc.ID = id
		if err := validate.Content(&doc.Content, p.maxContent); err != nil {
			return 0, fmt.Errorf("document %s: %w", id, err)
		}
		docs[i] = doc
	}

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := p.store.Materialize(ctx, a, doc); err != nil {
			return 0, fmt.Errorf("document %s: %w", doc.ID, err)
		}
		ok, err := p.store.Progress(ctx, a.ID, token, i+1, p.lease)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, errLeaseLost
		}
		if p.observe != nil {
			p.observe(a, i+1)
		}
	}
	return p.store.Materialized(ctx, a)
}
