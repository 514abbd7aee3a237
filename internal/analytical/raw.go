// raw.go exposes SQL primitives over the analytical database for
// reporting and bulk loading that the Adapter surface does not cover.

package analytical

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ErrInvalidIdentifier is returned by Insert for a table or column name
// that is not a plain SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Query runs a read statement and returns each row as a column map.
// BLOB and TEXT values are returned as strings.
func (s *Store) Query(ctx context.Context, q string, args ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query scan: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				m[c] = string(b)
				continue
			}
			m[c] = vals[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Command runs a write statement and returns the rows affected.
func (s *Store) Command(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("command: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("command: %w", err)
	}
	return n, nil
}

// Insert writes rows into table in one transaction and returns the number
// inserted. Each row may name different columns.
func (s *Store) Insert(ctx context.Context, table string, rows []map[string]any) (int64, error) {
	if !identRe.MatchString(table) {
		return 0, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, table)
	}
	var n int64
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		for i, r := range rows {
			if len(r) == 0 {
				return fmt.Errorf("row %d: no columns", i)
			}
			cols := make([]string, 0, len(r))
			for c := range r {
				if !identRe.MatchString(c) {
					return fmt.Errorf("row %d: %w: column %q", i, ErrInvalidIdentifier, c)
				}
				cols = append(cols, c)
			}
			slices.Sort(cols)
			args := make([]any, len(cols))
			for j, c := range cols {
				args[j] = r[c]
			}
			q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?%s)`,
				table, strings.Join(cols, ", "), strings.Repeat(", ?", len(cols)-1))
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return fmt.Errorf("insert row %d into %s: %w", i, table, err)
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
