// things.go implements the record adapter over the append-only things
// table.

package analytical

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jpl-au/docstore/internal/query"
	"github.com/jpl-au/docstore/internal/store"
)

// Things is one namespace of the analytical store.
type Things struct {
	s  *Store
	ns string
}

var (
	_ store.Adapter   = (*Things)(nil)
	_ store.RawReader = (*Things)(nil)
	_ store.Vacuumer  = (*Things)(nil)
)

// Kind identifies the backend.
func (t *Things) Kind() store.Kind { return store.KindAnalytical }

// NS returns the namespace.
func (t *Things) NS() string { return t.ns }

// Close is a no-op; the connection belongs to the Store.
func (t *Things) Close() error { return nil }

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// selection narrows the latest read path.
type selection struct {
	id             string   // single key lookup
	prefix         string   // id prefix
	types          []string // applied to the winning row
	includeDeleted bool
}

// latest is the only materialising read: for every key in ns it picks the
// row with the highest seq, then filters. Type and liveness filters apply
// to the winning row only, so a superseded row can never resurface.
// Results are in first-insert order.
func latest(ctx context.Context, q queryer, ns string, sel selection) ([]store.Document, error) {
	var b strings.Builder
	var args []any

	b.WriteString(`SELECT t.id, t.type, t.context, t.data, t.content, t.seq, t.action_id, t.created_at, t.updated_at, t.deleted_at
		FROM things t
		JOIN (SELECT MAX(seq) AS seq, MIN(seq) AS first FROM things WHERE ns = ?`)
	args = append(args, ns)
	if sel.id != "" {
		b.WriteString(` AND key_hash = ? AND id = ?`)
		args = append(args, keyHash(ns, sel.id), sel.id)
	}
	if sel.prefix != "" {
		b.WriteString(` AND substr(id, 1, length(?)) = ?`)
		args = append(args, sel.prefix, sel.prefix)
	}
	b.WriteString(` GROUP BY id) l ON t.seq = l.seq`)

	var where []string
	if !sel.includeDeleted {
		where = append(where, `t.deleted_at IS NULL`)
	}
	if len(sel.types) > 0 {
		where = append(where, `t.type IN (?`+strings.Repeat(`, ?`, len(sel.types)-1)+`)`)
		for _, typ := range sel.types {
			args = append(args, typ)
		}
	}
	if len(where) > 0 {
		b.WriteString(` WHERE `)
		b.WriteString(strings.Join(where, ` AND `))
	}
	b.WriteString(` ORDER BY l.first`)

	rows, err := q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("read latest: %w", err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		d, err := scanThing(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func scanThing(rows *sql.Rows) (store.Document, error) {
	var (
		d                store.Document
		ctxJSON, data    []byte
		content          []byte
		seq              int64
		action           sql.NullString
		created, updated int64
		deleted          sql.NullInt64
	)
	if err := rows.Scan(&d.ID, &d.Type, &ctxJSON, &data, &content, &seq, &action, &created, &updated, &deleted); err != nil {
		return d, fmt.Errorf("scan thing: %w", err)
	}

	var err error
	if d.Context, err = decodeAny(ctxJSON); err != nil {
		return d, fmt.Errorf("decode context for %s: %w", d.ID, err)
	}
	if d.Data, err = decodeData(data); err != nil {
		return d, fmt.Errorf("decode data for %s: %w", d.ID, err)
	}
	if d.Content, err = decompress(content); err != nil {
		return d, fmt.Errorf("decode content for %s: %w", d.ID, err)
	}
	d.Version = strconv.FormatInt(seq, 10)
	d.Action = action.String
	d.CreatedAt = fromUnix(created)
	d.UpdatedAt = fromUnix(updated)
	if deleted.Valid {
		ts := fromUnix(deleted.Int64)
		d.DeletedAt = &ts
	}
	return d, nil
}

func latestOne(ctx context.Context, q queryer, ns, id string, includeDeleted bool) (*store.Document, error) {
	docs, err := latest(ctx, q, ns, selection{id: id, includeDeleted: includeDeleted})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return &docs[0], nil
}

// Get returns the live record for id, or nil.
func (t *Things) Get(ctx context.Context, id string) (*store.Document, error) {
	return latestOne(ctx, t.s.db, t.ns, id, false)
}

// RawGet returns the latest row for id, including a tombstone.
func (t *Things) RawGet(ctx context.Context, id string) (*store.Document, error) {
	return latestOne(ctx, t.s.db, t.ns, id, true)
}

// List returns one page of live records matching f.
func (t *Things) List(ctx context.Context, f store.Filter) (store.Page, error) {
	docs, err := latest(ctx, t.s.db, t.ns, selection{prefix: f.Prefix, types: f.Types})
	if err != nil {
		return store.Page{}, err
	}
	return query.List(docs, f), nil
}

// Search returns one page of live records ranked against q.
func (t *Things) Search(ctx context.Context, q store.Query) (store.Page, error) {
	docs, err := latest(ctx, t.s.db, t.ns, selection{prefix: q.Prefix, types: q.Types})
	if err != nil {
		return store.Page{}, err
	}
	return query.Search(docs, q), nil
}

// row is one things row to append.
type row struct {
	ns, id    string
	doc       store.Document
	actionID  string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// appendRow inserts r and returns its seq.
func appendRow(ctx context.Context, tx *sql.Tx, r row) (int64, error) {
	ctxJSON, err := encodeJSON(r.doc.Context)
	if err != nil {
		return 0, fmt.Errorf("encode context: %w", err)
	}
	data, err := encodeData(r.doc.Data)
	if err != nil {
		return 0, fmt.Errorf("encode data: %w", err)
	}

	var actionID, deleted any
	if r.actionID != "" {
		actionID = r.actionID
	}
	if r.deletedAt != nil {
		deleted = toUnix(*r.deletedAt)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO things
		(ns, id, key_hash, type, context, data, content, action_id, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ns, r.id, keyHash(r.ns, r.id), r.doc.Type, ctxJSON, data, compress(r.doc.Content),
		actionID, toUnix(r.createdAt), toUnix(r.updatedAt), deleted)
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", r.id, err)
	}
	return res.LastInsertId()
}

// Set appends a row that shadows the current record. Preconditions are
// checked against the merged latest row inside the same transaction.
func (t *Things) Set(ctx context.Context, id string, doc store.Document, opts store.SetOptions) (store.SetResult, error) {
	var res store.SetResult
	err := t.s.Tx(ctx, func(tx *sql.Tx) error {
		cur, err := latestOne(ctx, tx, t.ns, id, true)
		if err != nil {
			return err
		}
		live := cur != nil && cur.Live()

		switch {
		case opts.CreateOnly && live:
			return fmt.Errorf("create %s: already exists: %w", id, store.ErrConflict)
		case opts.UpdateOnly && !live:
			return fmt.Errorf("update %s: does not exist: %w", id, store.ErrConflict)
		case opts.Version != "" && !live:
			return fmt.Errorf("update %s at version %s: does not exist: %w", id, opts.Version, store.ErrConflict)
		case opts.Version != "" && opts.Version != cur.Version:
			return fmt.Errorf("update %s: version %s is stale (current %s): %w", id, opts.Version, cur.Version, store.ErrConflict)
		}

		now := time.Now()
		created := now
		if live {
			created = cur.CreatedAt
		}
		seq, err := appendRow(ctx, tx, row{ns: t.ns, id: id, doc: doc, createdAt: created, updatedAt: now})
		if err != nil {
			return err
		}
		res = store.SetResult{ID: id, Created: !live, Version: strconv.FormatInt(seq, 10)}
		return nil
	})
	return res, err
}

// Delete appends a tombstone (soft) or removes every row of the key (hard).
func (t *Things) Delete(ctx context.Context, id string, opts store.DeleteOptions) (store.DeleteResult, error) {
	if !opts.Soft {
		res, err := t.s.db.ExecContext(ctx, `DELETE FROM things WHERE key_hash = ? AND ns = ? AND id = ?`,
			keyHash(t.ns, id), t.ns, id)
		if err != nil {
			return store.DeleteResult{}, fmt.Errorf("delete %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return store.DeleteResult{}, fmt.Errorf("delete %s: %w", id, err)
		}
		return store.DeleteResult{ID: id, Deleted: n > 0}, nil
	}

	out := store.DeleteResult{ID: id}
	err := t.s.Tx(ctx, func(tx *sql.Tx) error {
		cur, err := latestOne(ctx, tx, t.ns, id, false)
		if err != nil || cur == nil {
			return err
		}
		now := time.Now()
		if _, err := appendRow(ctx, tx, row{
			ns: t.ns, id: id, doc: *cur,
			createdAt: cur.CreatedAt, updatedAt: now, deletedAt: &now,
		}); err != nil {
			return err
		}
		out.Deleted = true
		return nil
	})
	return out, err
}
