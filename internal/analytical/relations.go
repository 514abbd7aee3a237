// relations.go stores typed edges between records. Edges follow the same
// append-and-shadow rule as things: the newest row for (ns, from, type, to)
// wins, and Unrelate appends a tombstone.

package analytical

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jpl-au/docstore/internal/validate"
)

// Relation is a typed edge From -> To.
type Relation struct {
	Type      string         `json:"type"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Relate records an edge. Relating the same (from, type, to) again replaces
// its data.
func (t *Things) Relate(ctx context.Context, r Relation) error {
	from, to, err := validate.Relation(r.Type, r.From, r.To)
	if err != nil {
		return err
	}
	var data []byte
	if r.Data != nil {
		if data, err = encodeData(r.Data); err != nil {
			return fmt.Errorf("encode relation data: %w", err)
		}
	}
	return t.appendRelation(ctx, r.Type, from, to, data, nil)
}

// Unrelate removes an edge. Removing an absent edge is not an error.
func (t *Things) Unrelate(ctx context.Context, typ, from, to string) error {
	from, to, err := validate.Relation(typ, from, to)
	if err != nil {
		return err
	}
	now := time.Now()
	return t.appendRelation(ctx, typ, from, to, nil, &now)
}

func (t *Things) appendRelation(ctx context.Context, typ, from, to string, data []byte, deleted *time.Time) error {
	var del any
	if deleted != nil {
		del = toUnix(*deleted)
	}
	_, err := t.s.db.ExecContext(ctx, `INSERT INTO relations
		(ns, type, from_id, to_id, data, created_at, deleted_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ns, typ, from, to, data, toUnix(time.Now()), del)
	if err != nil {
		return fmt.Errorf("relate %s -[%s]-> %s: %w", from, typ, to, err)
	}
	return nil
}

// Outgoing returns live edges leaving from. An empty typ matches every type.
func (t *Things) Outgoing(ctx context.Context, from, typ string) ([]Relation, error) {
	return t.edges(ctx, "from_id", from, typ)
}

// Incoming returns live edges arriving at to. An empty typ matches every type.
func (t *Things) Incoming(ctx context.Context, to, typ string) ([]Relation, error) {
	return t.edges(ctx, "to_id", to, typ)
}

// edges reads the winning row per edge key, then drops tombstones.
// col is one of the two fixed column names above.
func (t *Things) edges(ctx context.Context, col, id, typ string) ([]Relation, error) {
	q := `SELECT r.type, r.from_id, r.to_id, r.data, r.created_at
		FROM relations r
		JOIN (SELECT MAX(seq) AS seq FROM relations WHERE ns = ? AND ` + col + ` = ?`
	args := []any{t.ns, id}
	if typ != "" {
		q += ` AND type = ?`
		args = append(args, typ)
	}
	q += ` GROUP BY type, from_id, to_id) l ON r.seq = l.seq
		WHERE r.deleted_at IS NULL
		ORDER BY r.seq`

	rows, err := t.s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read relations of %s: %w", id, err)
	}
	defer rows.Close()

	var out []Relation
	for rows.Next() {
		var (
			r       Relation
			data    []byte
			created int64
		)
		if err := rows.Scan(&r.Type, &r.From, &r.To, &data, &created); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		if len(data) > 0 {
			if r.Data, err = decodeData(data); err != nil {
				return nil, fmt.Errorf("decode relation data: %w", err)
			}
		}
		r.CreatedAt = fromUnix(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// compactRelations removes shadowed edge rows and edges whose winning row
// is a tombstone, within ns.
func compactRelations(ctx context.Context, tx *sql.Tx, ns string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM relations WHERE ns = ? AND seq NOT IN (
		SELECT MAX(seq) FROM relations WHERE ns = ? GROUP BY type, from_id, to_id)`, ns, ns)
	if err != nil {
		return 0, fmt.Errorf("compact relations: %w", err)
	}
	shadowed, _ := res.RowsAffected()
	res, err = tx.ExecContext(ctx, `DELETE FROM relations WHERE ns = ? AND deleted_at IS NOT NULL`, ns)
	if err != nil {
		return 0, fmt.Errorf("compact relations: %w", err)
	}
	dead, _ := res.RowsAffected()
	return shadowed + dead, nil
}
