// Package store defines the document record model and the Adapter contract
// every storage backend implements. Backends live in their own packages
// (relational, gitstore, analytical); consumers depend only on this package,
// which keeps CRUD, pagination and ranking semantics identical across them.
package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrConflict is returned when a write precondition fails: CreateOnly on a
// live id, UpdateOnly on a missing id, or a stale Version. Callers should
// re-read and retry.
var ErrConflict = errors.New("conflict")

// Kind identifies a backend implementation. The factory in package document
// switches on it to construct the configured Adapter.
type Kind string

const (
	KindRelational Kind = "relational"
	KindGit        Kind = "git"
	KindAnalytical Kind = "analytical"
)

// Kinds returns all supported backend kinds in display order.
func Kinds() []Kind {
	return []Kind{KindRelational, KindGit, KindAnalytical}
}

// Valid reports whether k names a supported backend.
func (k Kind) Valid() bool {
	switch k {
	case KindRelational, KindGit, KindAnalytical:
		return true
	}
	return false
}

// Document is a semi-structured content record.
//
// Version is an opaque token whose format depends on the backend (integer
// counter, git blob hash, merge sequence). Tokens are only meaningful to the
// backend that issued them.
type Document struct {
	ID        string         // Forward-slash hierarchical key (e.g. "posts/hello")
	Type      string         // Optional type tag
	Context   any            // Optional linked-data context (string or object)
	Data      map[string]any // Arbitrary payload
	Content   string         // Free-text body
	Version   string         // Backend-specific version token
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time // Soft-delete marker, nil when live

	// Action is the id of the publish Action that wrote this version, on
	// backends with a publish queue. Empty for direct writes. Set ignores it.
	Action string

	// Score is set on search results only.
	Score float64
}

// Live reports whether the document has not been soft-deleted.
func (d *Document) Live() bool {
	return d.DeletedAt == nil
}

// Clone returns a copy whose Data map can be modified independently.
func (d Document) Clone() Document {
	if d.Data != nil {
		data := make(map[string]any, len(d.Data))
		for k, v := range d.Data {
			data[k] = v
		}
		d.Data = data
	}
	if d.DeletedAt != nil {
		t := *d.DeletedAt
		d.DeletedAt = &t
	}
	return d
}

// SetOptions carries the optimistic-concurrency preconditions for Set.
type SetOptions struct {
	CreateOnly bool   // Fail with ErrConflict if a live record exists
	UpdateOnly bool   // Fail with ErrConflict if no live record exists
	Version    string // Fail with ErrConflict unless the live version matches
}

// SetResult reports the outcome of a successful Set.
type SetResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
	Version string `json:"version"`
}

// DeleteOptions configures Delete.
type DeleteOptions struct {
	Soft bool // Mark deleted instead of removing the artifact
}

// DeleteResult reports the outcome of Delete. Deleted is false when the id
// was already absent; that is not an error.
type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Page is a slice of a filtered, sorted result set.
type Page struct {
	Documents []Document
	Total     int  // Matches before slicing
	HasMore   bool // Offset+Limit < Total
}

// DocJSON is the API representation of a Document with RFC3339 timestamps.
type DocJSON struct {
	ID        string         `json:"id"`
	Type      string         `json:"type,omitempty"`
	Context   any            `json:"context,omitempty"`
	Data      map[string]any `json:"data"`
	Content   string         `json:"content"`
	Version   string         `json:"version"`
	CreatedAt string         `json:"createdAt,omitempty"`
	UpdatedAt string         `json:"updatedAt,omitempty"`
	DeletedAt *string        `json:"deletedAt"`
	Action    string         `json:"action,omitempty"`
	Score     *float64       `json:"score,omitempty"`
}

// ToJSON converts a Document to its API representation. The score is only
// included for search results.
func (d *Document) ToJSON(withScore bool) DocJSON {
	j := DocJSON{
		ID:        d.ID,
		Type:      d.Type,
		Context:   d.Context,
		Data:      d.Data,
		Content:   d.Content,
		Version:   d.Version,
		Action:    d.Action,
		CreatedAt: formatTime(d.CreatedAt),
		UpdatedAt: formatTime(d.UpdatedAt),
	}
	if j.Data == nil {
		j.Data = map[string]any{}
	}
	if d.DeletedAt != nil {
		s := formatTime(*d.DeletedAt)
		j.DeletedAt = &s
	}
	if withScore {
		score := d.Score
		j.Score = &score
	}
	return j
}

// PageJSON is the API representation of a Page.
type PageJSON struct {
	Documents []DocJSON `json:"documents"`
	Total     int       `json:"total"`
	HasMore   bool      `json:"hasMore"`
}

// ToJSON converts a Page to its API representation.
func (p Page) ToJSON(withScore bool) PageJSON {
	docs := make([]DocJSON, 0, len(p.Documents))
	for i := range p.Documents {
		docs = append(docs, p.Documents[i].ToJSON(withScore))
	}
	return PageJSON{Documents: docs, Total: p.Total, HasMore: p.HasMore}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON encodes a value with indentation for human-readable CLI output.
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
