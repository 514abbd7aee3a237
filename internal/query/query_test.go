package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/store"
)

func ids(p store.Page) []string {
	out := make([]string, 0, len(p.Documents))
	for _, d := range p.Documents {
		out = append(out, d.ID)
	}
	return out
}

func fixture() []store.Document {
	deleted := time.Now()
	return []store.Document{
		{ID: "posts/c", Type: "post", Data: map[string]any{"rank": 3, "author": map[string]any{"name": "ann"}}},
		{ID: "posts/a", Type: "post", Data: map[string]any{"rank": 1.0, "author": map[string]any{"name": "bob"}}},
		{ID: "pages/about", Type: "page", Data: map[string]any{"rank": int64(2)}},
		{ID: "posts/b", Type: "post", Data: map[string]any{"rank": 2}},
		{ID: "posts/gone", Type: "post", DeletedAt: &deleted},
	}
}

func TestList_BackendOrderWithoutSort(t *testing.T) {
	p := List(fixture(), store.Filter{})
	if diff := cmp.Diff([]string{"posts/c", "posts/a", "pages/about", "posts/b"}, ids(p)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, p.Total)
	assert.False(t, p.HasMore)
}

func TestList_Filters(t *testing.T) {
	tests := []struct {
		name string
		f    store.Filter
		want []string
	}{
		{"type", store.Filter{Types: []string{"page"}}, []string{"pages/about"}},
		{"types are OR", store.Filter{Types: []string{"page", "post"}, SortBy: "id"},
			[]string{"pages/about", "posts/a", "posts/b", "posts/c"}},
		{"prefix", store.Filter{Prefix: "posts/", SortBy: "id"}, []string{"posts/a", "posts/b", "posts/c"}},
		{"where number normalised", store.Filter{Where: []store.Predicate{{Path: "rank", Value: 1}}}, []string{"posts/a"}},
		{"where nested", store.Filter{Where: []store.Predicate{{Path: "author.name", Value: "ann"}}}, []string{"posts/c"}},
		{"where all must match", store.Filter{Where: []store.Predicate{
			{Path: "rank", Value: 2}, {Path: "author.name", Value: "ann"},
		}}, []string{}},
		{"where missing path", store.Filter{Where: []store.Predicate{{Path: "nope", Value: nil}}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(List(fixture(), tt.f))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestList_SortByDataWithIDTiebreak(t *testing.T) {
	p := List(fixture(), store.Filter{SortBy: "rank"})
	if diff := cmp.Diff([]string{"posts/a", "pages/about", "posts/b", "posts/c"}, ids(p)); diff != "" {
		t.Errorf("asc mismatch (-want +got):\n%s", diff)
	}

	p = List(fixture(), store.Filter{SortBy: "data.rank", SortOrder: store.Desc})
	if diff := cmp.Diff([]string{"posts/c", "pages/about", "posts/b", "posts/a"}, ids(p)); diff != "" {
		t.Errorf("desc mismatch (-want +got):\n%s", diff)
	}
}

func TestList_PaginationPartitions(t *testing.T) {
	var docs []store.Document
	for i := range 23 {
		docs = append(docs, store.Document{ID: fmt.Sprintf("d/%02d", i)})
	}

	const limit = 5
	var seen []string
	for offset := 0; ; offset += limit {
		p := List(docs, store.Filter{SortBy: "id", Limit: limit, Offset: offset})
		require.Equal(t, 23, p.Total)
		seen = append(seen, ids(p)...)
		if !p.HasMore {
			assert.Len(t, p.Documents, 3, "last page")
			break
		}
		assert.Len(t, p.Documents, limit)
	}

	want := make([]string, 0, len(docs))
	for _, d := range docs {
		want = append(want, d.ID)
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("pages do not partition the set (-want +got):\n%s", diff)
	}
}

func TestPaginate_Edges(t *testing.T) {
	docs := []store.Document{{ID: "a"}, {ID: "b"}}

	p := Paginate(docs, 0, 1)
	assert.Equal(t, []string{"b"}, ids(p))
	assert.False(t, p.HasMore)

	p = Paginate(docs, 10, 5)
	assert.Empty(t, p.Documents)
	assert.Equal(t, 2, p.Total)

	p = Paginate(docs, 2, 0)
	assert.False(t, p.HasMore, "offset+limit == total")
}

func TestSearch_Ranking(t *testing.T) {
	docs := []store.Document{
		{ID: "one", Content: "go"},
		{ID: "three", Content: "Go go GO"},
		{ID: "two", Content: "go and go"},
		{ID: "none", Content: "rust"},
		{ID: "titled", Content: "", Data: map[string]any{"title": "Go"}},
		{ID: "field", Content: "", Data: map[string]any{"summary": "go"}},
	}
	p := Search(docs, store.Query{Text: "go"})

	want := []string{"three", "titled", "field", "two", "one"}
	if diff := cmp.Diff(want, ids(p)); diff != "" {
		t.Errorf("ranking mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, p.Total)
	assert.InDelta(t, 3.0, p.Documents[0].Score, 0)
	assert.InDelta(t, 3.0, p.Documents[1].Score, 0)
}

func TestSearch_FieldsRestrictData(t *testing.T) {
	docs := []store.Document{
		{ID: "a", Data: map[string]any{"title": "alpha", "tags": []any{"alpha"}}},
		{ID: "b", Content: "alpha"},
	}
	p := Search(docs, store.Query{Text: "alpha", Fields: []string{"tags"}})
	require.Len(t, p.Documents, 2)
	assert.Equal(t, "a", p.Documents[0].ID)
	assert.InDelta(t, WeightField, p.Documents[0].Score, 0)
	assert.InDelta(t, WeightContent, p.Documents[1].Score, 0)
}

func TestSearch_FilterAndEmptyQuery(t *testing.T) {
	docs := []store.Document{
		{ID: "a", Type: "post", Content: "x"},
		{ID: "b", Type: "page", Content: "x"},
	}
	p := Search(docs, store.Query{Text: "x", Filter: store.Filter{Types: []string{"page"}}})
	assert.Equal(t, []string{"b"}, ids(p))

	p = Search(docs, store.Query{Text: "   "})
	assert.Empty(t, p.Documents)
	assert.Equal(t, 0, p.Total)
}

func TestTerms(t *testing.T) {
	if diff := cmp.Diff([]string{"go", "store"}, Terms("Go  STORE go\tstore")); diff != "" {
		t.Errorf("terms mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare(1, 1.0))
	assert.Equal(t, -1, Compare(1, 2))
	assert.Equal(t, -1, Compare(nil, "a"))
	assert.Equal(t, -1, Compare(true, 0))
	assert.Equal(t, 1, Compare("b", "a"))
}

func TestLookup(t *testing.T) {
	data := map[string]any{"a": map[string]any{"b": []any{"x", "y"}}}
	v, ok := Lookup(data, "a.b.1")
	require.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = Lookup(data, "a.b.9")
	assert.False(t, ok)
	_, ok = Lookup(data, "a.c")
	assert.False(t, ok)
}

func TestParsePredicate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want store.Predicate
	}{
		{"author.name=ann", store.Predicate{Path: "author.name", Value: "ann"}},
		{`author.name="ann"`, store.Predicate{Path: "author.name", Value: "ann"}},
		{"rank=2", store.Predicate{Path: "rank", Value: float64(2)}},
		{"draft=false", store.Predicate{Path: "draft", Value: false}},
		{"note=", store.Predicate{Path: "note", Value: ""}},
	} {
		got, err := ParsePredicate(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"noequals", "=value"} {
		_, err := ParsePredicate(bad)
		assert.ErrorIs(t, err, ErrPredicate, bad)
	}
}
