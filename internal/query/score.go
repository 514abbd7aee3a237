// score.go implements weighted term-frequency ranking.
//
// Every occurrence of a term adds a fixed weight depending on where it was
// found. Terms are case folded, so "Go" and "GO" are the same term.

package query

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jpl-au/docstore/internal/store"
)

// Weights per occurrence.
const (
	WeightContent = 1.0
	WeightField   = 2.0
	WeightTitle   = 3.0
)

// TitleFields are the data fields that score as titles.
var TitleFields = []string{"title", "name", "headline", "label"}

// Terms splits text on whitespace, folds case and removes duplicates,
// preserving first-seen order.
func Terms(text string) []string {
	fold := cases.Fold()
	var terms []string
	seen := make(map[string]bool)
	for _, f := range strings.Fields(text) {
		t := fold.String(norm.NFC.String(f))
		if seen[t] {
			continue
		}
		seen[t] = true
		terms = append(terms, t)
	}
	return terms
}

// Score computes d's rank for terms. fields restricts which data fields are
// searched; when empty every data field is. Content is always searched.
// terms must come from Terms.
func Score(d *store.Document, terms []string, fields []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	fold := cases.Fold()
	content := fold.String(norm.NFC.String(d.Content))

	var score float64
	for _, t := range terms {
		score += WeightContent * float64(strings.Count(content, t))
	}

	if len(fields) == 0 {
		fields = slices.Sorted(maps.Keys(d.Data))
	}
	for _, f := range fields {
		v, ok := Lookup(d.Data, f)
		if !ok {
			continue
		}
		text := fold.String(norm.NFC.String(flatten(v)))
		if text == "" {
			continue
		}
		w := WeightField
		if isTitle(f) {
			w = WeightTitle
		}
		for _, t := range terms {
			score += w * float64(strings.Count(text, t))
		}
	}
	return score
}

func isTitle(field string) bool {
	leaf := field
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		leaf = field[i+1:]
	}
	return slices.Contains(TitleFields, strings.ToLower(leaf))
}

// flatten renders a payload value as searchable text. Nested values are
// joined with newlines so terms never straddle two values.
func flatten(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, flatten(e))
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		parts := make([]string, 0, len(x))
		for _, k := range slices.Sorted(maps.Keys(x)) {
			parts = append(parts, flatten(x[k]))
		}
		return strings.Join(parts, "\n")
	}
	return fmt.Sprint(v)
}
