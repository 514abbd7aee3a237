// sort.go orders candidates for List.

package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jpl-au/docstore/internal/store"
)

// Sort keys that address record fields rather than data paths.
const (
	SortID        = "id"
	SortType      = "type"
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
)

// Sort orders docs in place by key. An empty key keeps the input order.
// Any other key is a dotted data path, optionally written "data.<path>".
// Documents without the key sort before those with it in ascending order.
// Ties always fall back to id ascending, whatever the order.
func Sort(docs []store.Document, key string, order store.SortOrder) {
	if key == "" {
		return
	}
	desc := order == store.Desc
	slices.SortStableFunc(docs, func(a, b store.Document) int {
		c := compareKey(&a, &b, key)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func compareKey(a, b *store.Document, key string) int {
	switch key {
	case SortID:
		return strings.Compare(a.ID, b.ID)
	case SortType:
		return strings.Compare(a.Type, b.Type)
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	p := strings.TrimPrefix(key, "data.")
	av, aok := Lookup(a.Data, p)
	bv, bok := Lookup(b.Data, p)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return Compare(av, bv)
}

// Compare orders two payload values. Values of different kinds order as
// nil < bool < number < string < other; values of the same kind compare
// naturally, and other kinds compare by their printed form.
func Compare(a, b any) int {
	a, b = Normalise(a), Normalise(b)
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case nil:
		return 0
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}
