// sqlite_ops.go provides SQLite connection management and low-level operations.
//
// This is the only file that imports the SQLite driver.
//
// WAL mode with a busy timeout lets the HTTP server and CLI read while
// another process writes, without "database is locked" errors.

package relational

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jpl-au/docstore/internal/store"

	// Register sqlite driver
	_ "modernc.org/sqlite"
)

// Store is the relational backend: one row per record with a monotonic
// integer version.
type Store struct {
	db *sql.DB
}

var (
	_ store.Adapter   = (*Store)(nil)
	_ store.RawReader = (*Store)(nil)
	_ store.Vacuumer  = (*Store)(nil)
)

// Open opens the SQLite database file at path. Call Init before use and
// Close when done.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// WAL: readers don't block the writer. Creates -wal and -shm files.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	// NORMAL is corruption-safe under WAL; only the last commit can be lost
	// on OS crash.
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting synchronous mode: %w", err)
	}

	return &Store{db: db}, nil
}

// Init creates tables and indexes if they don't exist. Safe to call
// multiple times.
func (s *Store) Init() error {
	return execSchema(s.db)
}

// Kind identifies the backend.
func (s *Store) Kind() store.Kind { return store.KindRelational }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection for maintenance commands.
func (s *Store) DB() *sql.DB {
	return s.db
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const docColumns = `id, type, context, data, content, version, created_at, updated_at, deleted_at`

// scanDoc extracts a Document from a row selected with docColumns.
func scanDoc(sc scanner) (store.Document, error) {
	var (
		d       store.Document
		ctxJSON sql.NullString
		data    string
		version int64
		created int64
		updated int64
		deleted sql.NullInt64
	)
	if err := sc.Scan(&d.ID, &d.Type, &ctxJSON, &data, &d.Content, &version, &created, &updated, &deleted); err != nil {
		return d, err
	}

	if ctxJSON.Valid && ctxJSON.String != "" {
		if err := json.Unmarshal([]byte(ctxJSON.String), &d.Context); err != nil {
			return d, fmt.Errorf("decode context for %s: %w", d.ID, err)
		}
	}
	d.Data = map[string]any{}
	if err := json.Unmarshal([]byte(data), &d.Data); err != nil {
		return d, fmt.Errorf("decode data for %s: %w", d.ID, err)
	}
	d.Version = strconv.FormatInt(version, 10)
	d.CreatedAt = fromUnix(created)
	d.UpdatedAt = fromUnix(updated)
	if deleted.Valid {
		t := fromUnix(deleted.Int64)
		d.DeletedAt = &t
	}
	return d, nil
}

// scanDocuments iterates over query results, collecting documents.
func scanDocuments(rows *sql.Rows) ([]store.Document, error) {
	var docs []store.Document
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Tx executes fn within a database transaction, handling Begin, Commit and
// Rollback. An error from fn rolls back.
//
//	err := s.Tx(ctx, func(tx *sql.Tx) error {
//	    if _, err := tx.ExecContext(ctx, `UPDATE ...`); err != nil {
//	        return err  // triggers rollback
//	    }
//	    return nil  // triggers commit
//	})
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Timestamps are stored as Unix nanoseconds so they round-trip exactly.
func toUnix(t time.Time) int64 { return t.UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

func encodeContext(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}
	return string(b), nil
}

func encodeData(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode data: %w", err)
	}
	return string(b), nil
}
