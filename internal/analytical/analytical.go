// Package analytical is the append-only backend.
//
// Records are never updated in place. Every Set appends a row and the row
// with the highest sequence number for a key supersedes the rest
// (merge-on-read). There is exactly one read path, latest, shared by Get,
// List and Search so the merge rule is applied in one place.
//
// Bulk ingestion goes through a staging queue: Publish appends one Action
// holding the documents, and the processor package materialises it later.
// This keeps ingestion O(1) regardless of batch size.
package analytical

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jpl-au/docstore/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - things, relations, actions
const currentSchemaVersion = 1

// DefaultNamespace is used when no namespace is configured.
const DefaultNamespace = "default"

// Store is the physical analytical database. Its embedded *Things is the
// default namespace, so a Store is itself a store.Adapter.
type Store struct {
	*Things
	db *sql.DB
}

var (
	_ store.Adapter    = (*Store)(nil)
	_ store.RawReader  = (*Store)(nil)
	_ store.Vacuumer   = (*Store)(nil)
	_ store.Namespacer = (*Store)(nil)
)

// Open creates or opens the database at path and applies the schema.
// ns is the default namespace; empty selects DefaultNamespace.
func Open(path, ns string) (*Store, error) {
	// _txlock=immediate makes every transaction take the write lock at
	// BEGIN, so read-check-append sequences cannot interleave across
	// processes.
	db, err := sql.Open("sqlite3", "file:"+path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// within the process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if ns == "" {
		ns = DefaultNamespace
	}
	s := &Store{db: db}
	s.Things = &Things{s: s, ns: ns}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Namespace returns an adapter scoped to ns. It shares the Store's
// connection; closing it is a no-op.
func (s *Store) Namespace(ns string) store.Adapter {
	return s.Ns(ns)
}

// Ns is Namespace returning the concrete type, for relation access.
func (s *Store) Ns(ns string) *Things {
	if ns == "" {
		return s.Things
	}
	return &Things{s: s, ns: ns}
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// Tx executes fn within a transaction, rolling back on error.
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
