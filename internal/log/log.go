// Package log provides centralised audit logging for docstore operations.
// Logs are stored in ~/.docstore/log/docstore-log.db and track CLI
// commands, HTTP requests and MCP tool invocations across projects.
//
// # Fluent API
//
// Use the fluent builder API to construct and write log entries:
//
//	log.Event("document:get", "read").
//		Actor(cmd.Actor()).
//		ID(id).
//		ResultVersion(doc.Version).
//		Write(err)
//
//	log.Event("document:search", "search").
//		Actor(cmd.Actor()).
//		Detail("query", text).
//		Detail("count", page.Total).
//		Write(err)
//
// The source parameter follows the format "{surface}:{operation}", for
// example "document:set", "http:publish" or "mcp:docstore_get".
package log

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single log entry.
type Entry struct {
	Source  string // e.g., "document:get", "mcp:docstore_set"
	Actor   string // who performed the action
	Action  string // verb: read, write, delete, publish, etc.
	NS      string // analytical namespace, if any
	ID      string // input: record id requested
	Version string // input: version precondition

	// Output fields - populated after operation succeeds
	ResolvedID    string // output: normalised id (if different from input)
	ResultVersion string // output: version created or read

	// Timing
	Start int64 // unix timestamp when Event() called
	End   int64 // unix timestamp when Write() called

	Success bool           // whether operation succeeded
	Error   string         // error message if failed
	Detail  map[string]any // additional operation-specific data
}

// Builder constructs a log entry using a fluent API.
// Create with [Event], chain methods to set fields, then call [Builder.Write]
// to write the entry.
type Builder struct {
	entry Entry
}

// Event creates a new log entry builder for an operation.
//
// The source identifies where the operation originated ("document:set",
// "http:get", "mcp:docstore_search"). The action is the verb: "read",
// "write", "delete", "list", "search", "publish", "process", "vacuum".
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().Unix(),
		},
	}
}

// Actor sets who performed the operation.
func (b *Builder) Actor(actor string) *Builder {
	b.entry.Actor = actor
	return b
}

// NS sets the namespace the operation ran in.
func (b *Builder) NS(ns string) *Builder {
	b.entry.NS = ns
	return b
}

// ID sets the record id this operation affects, or the prefix for listings.
func (b *Builder) ID(id string) *Builder {
	b.entry.ID = id
	return b
}

// Version sets the version precondition supplied by the caller.
func (b *Builder) Version(version string) *Builder {
	b.entry.Version = version
	return b
}

// Resolved sets the normalised id when it differs from the input.
func (b *Builder) Resolved(id string) *Builder {
	b.entry.ResolvedID = id
	return b
}

// ResultVersion sets the version that resulted from the operation.
//
// For writes: the new version created.
// For reads: the version that was actually read.
func (b *Builder) ResultVersion(version string) *Builder {
	b.entry.ResultVersion = version
	return b
}

// Detail adds a key-value pair to the log entry's detail map.
//
// Use for operation-specific data that doesn't fit standard fields:
// search queries, result counts, action ids.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write writes the log entry to the database, deriving success/failure from err.
//
//	doc, err := svc.Get(ctx, id)
//	log.Event("document:get", "read").ID(id).Write(err)
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().Unix()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	global = &Logger{db: db}
	return nil
}

// SetProject sets the project identifier for subsequent log entries.
// The dir should be the absolute path to the project root.
func SetProject(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.project = hash(dir)
	}
}

// Log writes an entry. Safe to call if logger not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close closes the global logger.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.db.Close()
		global = nil
	}
}
