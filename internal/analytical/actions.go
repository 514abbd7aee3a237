// actions.go implements the staging queue.
//
// Publish appends one Action row and returns; it never touches the things
// table and never waits for the processor. The processor claims Actions in
// batches, materialises their documents and records the outcome on the row.
//
// Claims carry a per-run token and a lease. A claimed Action whose lease
// expires (the run crashed) becomes claimable again; every later write to
// it is guarded by the token, so a run that lost its lease cannot
// overwrite the run that took over.

package analytical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/validate"
)

var (
	// ErrActionNotFound is returned when no Action has the requested id.
	ErrActionNotFound = errors.New("action not found")
	// ErrEmptyPublish is returned when a publish request carries no documents.
	ErrEmptyPublish = errors.New("no documents to publish")
	// ErrDuplicateDocument is returned when one publish carries the same id twice.
	ErrDuplicateDocument = errors.New("duplicate document id")
	// ErrInvalidStatus is returned for an unknown status filter.
	ErrInvalidStatus = errors.New("invalid status")
)

// Status is an Action's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatusFilter reads a listing filter: "" selects pending Actions and
// "all" selects every status.
func ParseStatusFilter(v string) (Status, error) {
	switch v {
	case "":
		return StatusPending, nil
	case "all":
		return "", nil
	}
	st := Status(strings.ToLower(v))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return st, nil
}

// StagedDoc is one document inside an Action.
type StagedDoc struct {
	ID      string         `json:"id"`
	Type    string         `json:"type,omitempty"`
	Context any            `json:"context,omitempty"`
	Data    map[string]any `json:"data"`
	Content string         `json:"content"`
}

// Meta records where a publish came from.
type Meta struct {
	Repo   string `json:"repo,omitempty"`
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// Result summarises a completed Action.
type Result struct {
	Things int `json:"things"`
}

// Action is a staged unit of publish work.
type Action struct {
	NS             string      `json:"ns"`
	ID             string      `json:"id"`
	Actor          string      `json:"actor,omitempty"`
	Documents      []StagedDoc `json:"documents,omitempty"`
	Status         Status      `json:"status"`
	Progress       int         `json:"progress"`
	Total          int         `json:"total"`
	Result         *Result     `json:"result,omitempty"`
	Error          string      `json:"error,omitempty"`
	Meta           Meta        `json:"meta"`
	ClaimedBy      string      `json:"claimedBy,omitempty"`
	LeaseExpiresAt *time.Time  `json:"leaseExpiresAt,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// PublishRequest stages documents for materialisation.
type PublishRequest struct {
	NS        string
	Actor     string
	Documents []StagedDoc
	Meta      Meta
}

// PublishBody is the wire form of a PublishRequest read by the HTTP, CLI
// and MCP surfaces.
type PublishBody struct {
	NS        string       `json:"ns,omitempty"`
	Actor     string       `json:"actor,omitempty"`
	Documents []PublishDoc `json:"documents"`
	Repo      string       `json:"repo,omitempty"`
	Branch    string       `json:"branch,omitempty"`
	Commit    string       `json:"commit,omitempty"`
}

// PublishDoc is one document of a PublishBody. Content is a pointer so a
// missing body is rejected rather than staged as empty.
type PublishDoc struct {
	ID      string         `json:"id"`
	Type    string         `json:"type,omitempty"`
	Context any            `json:"context,omitempty"`
	Data    map[string]any `json:"data"`
	Content *string        `json:"content"`
}

// Request converts b to a PublishRequest.
func (b PublishBody) Request() (PublishRequest, error) {
	docs := make([]StagedDoc, len(b.Documents))
	for i, d := range b.Documents {
		if err := validate.Content(d.Content, 0); err != nil {
			return PublishRequest{}, fmt.Errorf("document %d (%s): %w", i, d.ID, err)
		}
		docs[i] = StagedDoc{ID: d.ID, Type: d.Type, Context: d.Context, Data: d.Data, Content: *d.Content}
	}
	return PublishRequest{
		NS:        b.NS,
		Actor:     b.Actor,
		Documents: docs,
		Meta:      Meta{Repo: b.Repo, Branch: b.Branch, Commit: b.Commit},
	}, nil
}

// Publish appends one pending Action holding req.Documents. An empty NS
// selects the Store's default namespace.
func (s *Store) Publish(ctx context.Context, req PublishRequest) (*Action, error) {
	if len(req.Documents) == 0 {
		return nil, ErrEmptyPublish
	}
	seen := make(map[string]bool, len(req.Documents))
	for i, d := range req.Documents {
		if d.ID == "" {
			return nil, fmt.Errorf("document %d: missing id", i)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDocument, d.ID)
		}
		seen[d.ID] = true
	}
	ns := req.NS
	if ns == "" {
		ns = s.ns
	}

	docs, err := json.Marshal(req.Documents)
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}
	meta, err := json.Marshal(req.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}

	now := time.Now().UTC()
	a := &Action{
		NS:        ns,
		ID:        uuid.NewString(),
		Actor:     req.Actor,
		Status:    StatusPending,
		Total:     len(req.Documents),
		Meta:      req.Meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO actions
		(id, ns, actor, documents, status, progress, total, meta, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		a.ID, a.NS, a.Actor, compress(string(docs)), string(a.Status), a.Total, string(meta),
		toUnix(now), toUnix(now))
	if err != nil {
		return nil, fmt.Errorf("stage action: %w", err)
	}
	return a, nil
}

const actionColumns = `id, ns, actor, status, progress, total, result, error, meta,
	claimed_by, lease_expires_at, created_at, updated_at`

func scanAction(sc interface{ Scan(...any) error }, docs *[]byte) (*Action, error) {
	var (
		a                Action
		status           string
		result, errMsg   sql.NullString
		meta, claimed    sql.NullString
		lease            sql.NullInt64
		created, updated int64
	)
	dest := []any{&a.ID, &a.NS, &a.Actor, &status, &a.Progress, &a.Total, &result, &errMsg, &meta,
		&claimed, &lease, &created, &updated}
	if docs != nil {
		dest = append(dest, docs)
	}
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	a.Status = Status(status)
	a.Error = errMsg.String
	a.ClaimedBy = claimed.String
	a.CreatedAt = fromUnix(created)
	a.UpdatedAt = fromUnix(updated)
	if lease.Valid {
		t := fromUnix(lease.Int64)
		a.LeaseExpiresAt = &t
	}
	if result.Valid && result.String != "" {
		a.Result = &Result{}
		if err := json.Unmarshal([]byte(result.String), a.Result); err != nil {
			return nil, fmt.Errorf("decode result of %s: %w", a.ID, err)
		}
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &a.Meta); err != nil {
			return nil, fmt.Errorf("decode meta of %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

func decodeDocuments(a *Action, b []byte) error {
	raw, err := decompress(b)
	if err != nil {
		return fmt.Errorf("decode documents of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(raw), &a.Documents); err != nil {
		return fmt.Errorf("decode documents of %s: %w", a.ID, err)
	}
	return nil
}

// GetAction returns the Action with id, including its documents.
func (s *Store) GetAction(ctx context.Context, id string) (*Action, error) {
	var docs []byte
	a, err := scanAction(s.db.QueryRowContext(ctx,
		`SELECT `+actionColumns+`, documents FROM actions WHERE id = ?`, id), &docs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get action %s: %w", id, err)
	}
	if err := decodeDocuments(a, docs); err != nil {
		return nil, err
	}
	return a, nil
}

// ActionFilter selects Actions for ListActions.
type ActionFilter struct {
	NS     string // empty matches every namespace
	Status Status // empty matches every status
	Limit  int    // <= 0 means no limit
}

// ListActions returns Actions oldest first, without their documents.
func (s *Store) ListActions(ctx context.Context, f ActionFilter) ([]Action, error) {
	q := `SELECT ` + actionColumns + ` FROM actions`
	var (
		where []string
		args  []any
	)
	if f.NS != "" {
		where = append(where, `ns = ?`)
		args = append(args, f.NS)
	}
	if f.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(f.Status))
	}
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, ` AND `)
	}
	q += ` ORDER BY seq`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		a, err := scanAction(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Claim moves up to limit of the oldest claimable Actions to active in one
// statement, stamping them with token and a lease of the given duration,
// and returns them with their documents. Claimable means pending, or
// active with an expired lease. An empty ns claims across namespaces.
func (s *Store) Claim(ctx context.Context, ns, token string, limit int, lease time.Duration) ([]Action, error) {
	if limit <= 0 {
		return nil, nil
	}
	now := time.Now()

	q := `UPDATE actions
		SET status = ?, claimed_by = ?, lease_expires_at = ?, updated_at = ?
		WHERE seq IN (
			SELECT seq FROM actions
			WHERE (status = ? OR (status = ? AND lease_expires_at < ?))`
	args := []any{string(StatusActive), token, toUnix(now.Add(lease)), toUnix(now),
		string(StatusPending), string(StatusActive), toUnix(now)}
	if ns != "" {
		q += ` AND ns = ?`
		args = append(args, ns)
	}
	q += ` ORDER BY seq LIMIT ?)`
	args = append(args, limit)

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("claim actions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actionColumns+`, documents FROM actions WHERE claimed_by = ? AND status = ? ORDER BY seq`,
		token, string(StatusActive))
	if err != nil {
		return nil, fmt.Errorf("read claimed actions: %w", err)
	}
	defer rows.Close()

	var out []Action
	for rows.Next() {
		var docs []byte
		a, err := scanAction(rows, &docs)
		if err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if err := decodeDocuments(a, docs); err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Progress records how many documents of a claimed Action are done and
// renews the lease for another lease duration. Returns false if token no
// longer holds the claim.
func (s *Store) Progress(ctx context.Context, id, token string, progress int, lease time.Duration) (bool, error) {
	now := time.Now()
	return s.guarded(ctx, `UPDATE actions SET progress = ?, lease_expires_at = ?, updated_at = ?
		WHERE id = ? AND claimed_by = ? AND status = ?`,
		progress, toUnix(now.Add(lease)), toUnix(now), id, token, string(StatusActive))
}

// Release hands a claimed Action back to pending so the next run resumes
// it without waiting for the lease. Returns false if token no longer holds
// the claim.
func (s *Store) Release(ctx context.Context, id, token string) (bool, error) {
	return s.guarded(ctx, `UPDATE actions SET status = ?, claimed_by = NULL, lease_expires_at = NULL, updated_at = ?
		WHERE id = ? AND claimed_by = ? AND status = ?`,
		string(StatusPending), toUnix(time.Now()), id, token, string(StatusActive))
}

// Complete moves a claimed Action to completed. Returns false if token no
// longer holds the claim.
func (s *Store) Complete(ctx context.Context, id, token string, res Result) (bool, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return false, fmt.Errorf("encode result: %w", err)
	}
	return s.guarded(ctx, `UPDATE actions SET status = ?, result = ?, progress = total,
		lease_expires_at = NULL, updated_at = ?
		WHERE id = ? AND claimed_by = ? AND status = ?`,
		string(StatusCompleted), string(b), toUnix(time.Now()), id, token, string(StatusActive))
}

// Fail moves a claimed Action to failed, keeping msg. Returns false if
// token no longer holds the claim.
func (s *Store) Fail(ctx context.Context, id, token, msg string) (bool, error) {
	return s.guarded(ctx, `UPDATE actions SET status = ?, error = ?, lease_expires_at = NULL, updated_at = ?
		WHERE id = ? AND claimed_by = ? AND status = ?`,
		string(StatusFailed), msg, toUnix(time.Now()), id, token, string(StatusActive))
}

func (s *Store) guarded(ctx context.Context, q string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("update action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update action: %w", err)
	}
	return n > 0, nil
}

// Materialize appends doc as a record of a's namespace, tagged with a's id.
// If the Action already materialised this id (a recovered run), nothing is
// written and skipped is true.
func (s *Store) Materialize(ctx context.Context, a *Action, doc StagedDoc) (skipped bool, err error) {
	err = s.Tx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM things WHERE action_id = ? AND ns = ? AND id = ?`,
			a.ID, a.NS, doc.ID).Scan(&n); err != nil {
			return fmt.Errorf("check materialized %s: %w", doc.ID, err)
		}
		if n > 0 {
			skipped = true
			return nil
		}

		cur, err := latestOne(ctx, tx, a.NS, doc.ID, false)
		if err != nil {
			return err
		}
		now := time.Now()
		created := now
		if cur != nil {
			created = cur.CreatedAt
		}
		_, err = appendRow(ctx, tx, row{
			ns: a.NS, id: doc.ID, actionID: a.ID,
			doc:       toDocument(doc),
			createdAt: created, updatedAt: now,
		})
		return err
	})
	return skipped, err
}

// Materialized counts the distinct records a's id has written.
func (s *Store) Materialized(ctx context.Context, a *Action) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT id) FROM things WHERE action_id = ? AND ns = ?`, a.ID, a.NS).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count materialized for %s: %w", a.ID, err)
	}
	return n, nil
}

func toDocument(d StagedDoc) store.Document {
	return store.Document{ID: d.ID, Type: d.Type, Context: d.Context, Data: d.Data, Content: d.Content}
}
