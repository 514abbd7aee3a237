// codec.go converts between records and markdown files with YAML
// frontmatter.
//
// Layout:
//
//	---
//	$type: post
//	$createdAt: "2026-01-02T03:04:05.123456789Z"
//	$updatedAt: "2026-01-02T03:04:05.123456789Z"
//	title: Hello
//	---
//	body text, preserved byte for byte
//
// Record fields use reserved "$"-prefixed keys; every other key is data.
// Files written by hand without frontmatter decode as content only.

package gitstore

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpl-au/docstore/internal/store"
)

// Reserved frontmatter keys.
const (
	keyType      = "$type"
	keyContext   = "$context"
	keyCreatedAt = "$createdAt"
	keyUpdatedAt = "$updatedAt"
	keyDeletedAt = "$deletedAt"
)

var reserved = []string{keyType, keyContext, keyCreatedAt, keyUpdatedAt, keyDeletedAt}

// ErrReservedKey is returned when data uses a key reserved for record fields.
var ErrReservedKey = errors.New("reserved data key")

// ErrFrontmatter is returned for a file whose frontmatter is unterminated or
// not a YAML mapping.
var ErrFrontmatter = errors.New("invalid frontmatter")

const delim = "---\n"

// Encode renders d as a file. ID and Version are not stored; they come from
// the file path and blob hash.
func Encode(d store.Document) ([]byte, error) {
	meta := make(map[string]any, len(d.Data)+len(reserved))
	for k, v := range d.Data {
		for _, r := range reserved {
			if k == r {
				return nil, fmt.Errorf("%w: %s", ErrReservedKey, k)
			}
		}
		meta[k] = v
	}
	if d.Type != "" {
		meta[keyType] = d.Type
	}
	if d.Context != nil {
		meta[keyContext] = d.Context
	}
	if !d.CreatedAt.IsZero() {
		meta[keyCreatedAt] = formatTime(d.CreatedAt)
	}
	if !d.UpdatedAt.IsZero() {
		meta[keyUpdatedAt] = formatTime(d.UpdatedAt)
	}
	if d.DeletedAt != nil {
		meta[keyDeletedAt] = formatTime(*d.DeletedAt)
	}

	var buf bytes.Buffer
	buf.WriteString(delim)
	if len(meta) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(meta); err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode frontmatter: %w", err)
		}
	}
	buf.WriteString(delim)
	buf.WriteString(d.Content)
	return buf.Bytes(), nil
}

// Decode parses a file into a record without ID or Version.
func Decode(b []byte) (store.Document, error) {
	var d store.Document
	d.Data = map[string]any{}

	if !bytes.HasPrefix(b, []byte(delim)) {
		d.Content = string(b)
		return d, nil
	}

	rest := b[len(delim):]
	var front, body []byte
	if bytes.HasPrefix(rest, []byte(delim)) {
		body = rest[len(delim):]
	} else {
		end := bytes.Index(rest, []byte("\n"+delim))
		if end < 0 {
			return d, fmt.Errorf("%w: no closing delimiter", ErrFrontmatter)
		}
		front = rest[:end+1]
		body = rest[end+1+len(delim):]
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal(front, &meta); err != nil {
		return d, fmt.Errorf("%w: %w", ErrFrontmatter, err)
	}

	for k, v := range meta {
		switch k {
		case keyType:
			d.Type = fmt.Sprint(v)
		case keyContext:
			d.Context = v
		case keyCreatedAt:
			d.CreatedAt = parseTime(v)
		case keyUpdatedAt:
			d.UpdatedAt = parseTime(v)
		case keyDeletedAt:
			t := parseTime(v)
			d.DeletedAt = &t
		default:
			d.Data[k] = v
		}
	}
	d.Content = string(body)
	return d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x.UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
