// where.go interprets equality predicates over untyped data payloads.
//
// Payloads arrive from several decoders (encoding/json, goccy/go-json,
// yaml.v3) which disagree on numeric types, so values are normalised before
// comparison: every number becomes float64, and nested maps and slices are
// normalised recursively. This makes 1, int64(1) and 1.0 equal.

package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/jpl-au/docstore/internal/store"
)

// ErrPredicate is returned by ParsePredicate for malformed input.
var ErrPredicate = errors.New("invalid predicate (want path=value)")

// ParsePredicate parses the CLI form "path=value". A value that is a JSON
// literal (number, boolean, null, quoted string, array or object) is
// decoded; anything else is taken as a plain string, so author=ann and
// author="ann" are the same predicate.
func ParsePredicate(s string) (store.Predicate, error) {
	path, raw, ok := strings.Cut(s, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return store.Predicate{}, fmt.Errorf("%w: %q", ErrPredicate, s)
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}
	return store.Predicate{Path: path, Value: v}, nil
}

// ParsePredicates parses each element with ParsePredicate.
func ParsePredicates(in []string) ([]store.Predicate, error) {
	var out []store.Predicate
	for _, s := range in {
		p, err := ParsePredicate(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Where reports whether data satisfies every predicate.
func Where(data map[string]any, preds []store.Predicate) bool {
	for _, p := range preds {
		v, ok := Lookup(data, p.Path)
		if !ok || !Equal(v, p.Value) {
			return false
		}
	}
	return true
}

// Lookup resolves a dotted path (e.g. "author.name", "tags.0") inside data.
// Numeric segments index into slices.
func Lookup(data map[string]any, p string) (any, bool) {
	if p == "" {
		return nil, false
	}
	var cur any = data
	for seg := range strings.SplitSeq(p, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Equal compares two payload values after normalisation.
func Equal(a, b any) bool {
	return reflect.DeepEqual(Normalise(a), Normalise(b))
}

// Normalise converts a decoded payload value into a canonical form for
// comparison.
func Normalise(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Normalise(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalise(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	}
	return v
}
