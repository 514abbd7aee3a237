// Package storetest is the conformance suite every store.Adapter must pass.
//
// Each backend's tests call Run with a constructor; the suite then checks
// CRUD, optimistic concurrency, soft delete, pagination, filtering and
// ranking against the same expectations, which is what keeps the backends
// interchangeable.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/query"
	"github.com/jpl-au/docstore/internal/store"
)

// Opener returns a fresh, empty adapter. It should register any cleanup
// with t.Cleanup.
type Opener func(t *testing.T) store.Adapter

// Run executes the suite. Each subtest gets its own adapter.
func Run(t *testing.T, open Opener) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, a store.Adapter)
	}{
		{"SetThenGet", testSetThenGet},
		{"GetMissing", testGetMissing},
		{"SecondSetChangesVersion", testSecondSet},
		{"StaleVersionConflicts", testStaleVersion},
		{"MatchingVersionSucceeds", testMatchingVersion},
		{"CreateOnly", testCreateOnly},
		{"UpdateOnly", testUpdateOnly},
		{"SoftDelete", testSoftDelete},
		{"HardDelete", testHardDelete},
		{"SetRevivesSoftDeleted", testRevive},
		{"Pagination", testPagination},
		{"ListFilters", testListFilters},
		{"ListSort", testListSort},
		{"SearchRanking", testSearchRanking},
		{"SearchFolding", testSearchFolding},
		{"SearchSkipsDeleted", testSearchSkipsDeleted},
		{"Batch", testBatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := open(t)
			tt.fn(t, a)
		})
	}
}

func doc(typ, content string, data map[string]any) store.Document {
	return store.Document{Type: typ, Content: content, Data: data}
}

func set(t *testing.T, a store.Adapter, id string, d store.Document) store.SetResult {
	t.Helper()
	res, err := a.Set(context.Background(), id, d, store.SetOptions{})
	require.NoError(t, err)
	return res
}

func get(t *testing.T, a store.Adapter, id string) *store.Document {
	t.Helper()
	d, err := a.Get(context.Background(), id)
	require.NoError(t, err)
	return d
}

func ids(p store.Page) []string {
	out := make([]string, 0, len(p.Documents))
	for _, d := range p.Documents {
		out = append(out, d.ID)
	}
	return out
}

func testSetThenGet(t *testing.T, a store.Adapter) {
	data := map[string]any{"title": "Hello", "tags": []any{"x", "y"}, "n": 1.5}
	d := doc("post", "# Hello\n\nbody", data)
	d.Context = "https://schema.org"

	res := set(t, a, "posts/hello", d)
	assert.Equal(t, "posts/hello", res.ID)
	assert.True(t, res.Created)
	assert.NotEmpty(t, res.Version)

	got := get(t, a, "posts/hello")
	require.NotNil(t, got)
	assert.Equal(t, "posts/hello", got.ID)
	assert.Equal(t, "post", got.Type)
	assert.Equal(t, "https://schema.org", got.Context)
	assert.Equal(t, "# Hello\n\nbody", got.Content)
	assert.True(t, query.Equal(data, got.Data), "data round trip: got %#v", got.Data)
	assert.Equal(t, res.Version, got.Version)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
	assert.Nil(t, got.DeletedAt)
}

func testGetMissing(t *testing.T, a store.Adapter) {
	d, err := a.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func testSecondSet(t *testing.T, a store.Adapter) {
	first := set(t, a, "a", doc("", "one", nil))
	second := set(t, a, "a", doc("", "two", map[string]any{"k": "v"}))

	assert.False(t, second.Created)
	assert.NotEqual(t, first.Version, second.Version)

	got := get(t, a, "a")
	require.NotNil(t, got)
	assert.Equal(t, "two", got.Content)
	assert.Equal(t, second.Version, got.Version)
}

func testStaleVersion(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	first := set(t, a, "a", doc("", "one", nil))
	set(t, a, "a", doc("", "two", nil))

	_, err := a.Set(ctx, "a", doc("", "three", nil), store.SetOptions{Version: first.Version})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrConflict), "want ErrConflict, got %v", err)
	assert.Equal(t, "two", get(t, a, "a").Content)
}

func testMatchingVersion(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	first := set(t, a, "a", doc("", "one", nil))

	res, err := a.Set(ctx, "a", doc("", "two", nil), store.SetOptions{Version: first.Version})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.NotEqual(t, first.Version, res.Version)

	_, err = a.Set(ctx, "missing", doc("", "x", nil), store.SetOptions{Version: first.Version})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func testCreateOnly(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	res, err := a.Set(ctx, "a", doc("", "one", nil), store.SetOptions{CreateOnly: true})
	require.NoError(t, err)
	assert.True(t, res.Created)

	_, err = a.Set(ctx, "a", doc("", "two", nil), store.SetOptions{CreateOnly: true})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, "one", get(t, a, "a").Content)
}

func testUpdateOnly(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	_, err := a.Set(ctx, "a", doc("", "one", nil), store.SetOptions{UpdateOnly: true})
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Nil(t, get(t, a, "a"))

	set(t, a, "a", doc("", "one", nil))
	res, err := a.Set(ctx, "a", doc("", "two", nil), store.SetOptions{UpdateOnly: true})
	require.NoError(t, err)
	assert.False(t, res.Created)
}

func testSoftDelete(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	set(t, a, "a", doc("", "body", nil))

	res, err := a.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)
	assert.Equal(t, store.DeleteResult{ID: "a", Deleted: true}, res)
	assert.Nil(t, get(t, a, "a"))

	if raw, ok := a.(store.RawReader); ok {
		d, err := raw.RawGet(ctx, "a")
		require.NoError(t, err)
		require.NotNil(t, d, "soft-deleted artifact should persist")
		assert.NotNil(t, d.DeletedAt)
		assert.Equal(t, "body", d.Content)
	}

	res, err = a.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)
	assert.False(t, res.Deleted, "second soft delete")

	_, err = a.Set(ctx, "a", doc("", "x", nil), store.SetOptions{UpdateOnly: true})
	assert.ErrorIs(t, err, store.ErrConflict)

	page, err := a.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func testHardDelete(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	res, err := a.Delete(ctx, "missing", store.DeleteOptions{})
	require.NoError(t, err)
	assert.False(t, res.Deleted)

	set(t, a, "a", doc("", "body", nil))
	res, err = a.Delete(ctx, "a", store.DeleteOptions{})
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Nil(t, get(t, a, "a"))

	if raw, ok := a.(store.RawReader); ok {
		d, err := raw.RawGet(ctx, "a")
		require.NoError(t, err)
		assert.Nil(t, d)
	}

	set(t, a, "b", doc("", "body", nil))
	_, err = a.Delete(ctx, "b", store.DeleteOptions{Soft: true})
	require.NoError(t, err)
	res, err = a.Delete(ctx, "b", store.DeleteOptions{})
	require.NoError(t, err)
	assert.True(t, res.Deleted, "hard delete of soft-deleted record removes the artifact")
}

func testRevive(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	first := set(t, a, "a", doc("", "one", nil))
	_, err := a.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	res, err := a.Set(ctx, "a", doc("", "two", nil), store.SetOptions{CreateOnly: true})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEqual(t, first.Version, res.Version)

	got := get(t, a, "a")
	require.NotNil(t, got)
	assert.Equal(t, "two", got.Content)
}

func testPagination(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	const n, limit = 7, 3
	var want []string
	for i := range n {
		id := fmt.Sprintf("items/%02d", i)
		want = append(want, id)
		set(t, a, id, doc("item", "", map[string]any{"i": i}))
	}

	var seen []string
	pages := 0
	for offset := 0; ; offset += limit {
		p, err := a.List(ctx, store.Filter{SortBy: "id", Limit: limit, Offset: offset})
		require.NoError(t, err)
		require.Equal(t, n, p.Total)
		seen = append(seen, ids(p)...)
		pages++
		if !p.HasMore {
			break
		}
		require.Less(t, pages, n, "pagination did not terminate")
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, want, seen)
}

func testListFilters(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	set(t, a, "posts/a", doc("post", "", map[string]any{"author": map[string]any{"name": "ann"}, "rank": 1}))
	set(t, a, "posts/b", doc("post", "", map[string]any{"author": map[string]any{"name": "bob"}, "rank": 2}))
	set(t, a, "pages/a", doc("page", "", map[string]any{"rank": 1}))
	set(t, a, "notes/a", doc("note", "", nil))

	p, err := a.List(ctx, store.Filter{Types: []string{"post", "page"}, SortBy: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pages/a", "posts/a", "posts/b"}, ids(p))

	p, err = a.List(ctx, store.Filter{Prefix: "posts/", SortBy: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/a", "posts/b"}, ids(p))

	p, err = a.List(ctx, store.Filter{Where: []store.Predicate{{Path: "rank", Value: 1}}, SortBy: "id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pages/a", "posts/a"}, ids(p))

	p, err = a.List(ctx, store.Filter{Where: []store.Predicate{
		{Path: "rank", Value: 2.0},
		{Path: "author.name", Value: "bob"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"posts/b"}, ids(p))
}

func testListSort(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	set(t, a, "c", doc("", "", map[string]any{"rank": 1}))
	set(t, a, "a", doc("", "", map[string]any{"rank": 2}))
	set(t, a, "b", doc("", "", map[string]any{"rank": 1}))

	p, err := a.List(ctx, store.Filter{SortBy: "rank"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, ids(p))

	p, err = a.List(ctx, store.Filter{SortBy: "rank", SortOrder: store.Desc})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(p))

	p, err = a.List(ctx, store.Filter{SortBy: "id", SortOrder: store.Desc, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(p))
	assert.True(t, p.HasMore)
}

func testSearchRanking(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	set(t, a, "one", doc("", "the storage layer", nil))
	set(t, a, "two", doc("", "storage and more storage", nil))
	set(t, a, "titled", doc("", "", map[string]any{"title": "Storage"}))
	set(t, a, "other", doc("", "nothing relevant", nil))

	p, err := a.Search(ctx, store.Query{Text: "STORAGE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"titled", "two", "one"}, ids(p))
	assert.Equal(t, 3, p.Total)
	for i := 1; i < len(p.Documents); i++ {
		assert.GreaterOrEqual(t, p.Documents[i-1].Score, p.Documents[i].Score)
	}

	p, err = a.Search(ctx, store.Query{Text: "storage", Filter: store.Filter{Limit: 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"titled"}, ids(p))
	assert.True(t, p.HasMore)
}

func testSearchFolding(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	set(t, a, "school", doc("", "École publique", nil))
	set(t, a, "street", doc("", "Straße 12", nil))
	set(t, a, "note", doc("", "", map[string]any{"title": "Note: it's done", "tags": []any{"Ünïcode"}}))
	set(t, a, "plain", doc("", "nothing to see", nil))

	tests := []struct {
		text string
		want []string
	}{
		{"école", []string{"school"}},
		{"ÉCOLE", []string{"school"}},
		{"strasse", []string{"street"}},
		{"it's", []string{"note"}},
		{"note:", []string{"note"}},
		{"ünïcode", []string{"note"}},
	}
	for _, tt := range tests {
		p, err := a.Search(ctx, store.Query{Text: tt.text})
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, ids(p), tt.text)
	}

	p, err := a.Search(ctx, store.Query{Text: "done", Fields: []string{"tags"}})
	require.NoError(t, err)
	assert.Empty(t, p.Documents)
}

func testSearchSkipsDeleted(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	set(t, a, "a", doc("", "needle", nil))
	set(t, a, "b", doc("", "needle", nil))
	_, err := a.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	p, err := a.Search(ctx, store.Query{Text: "needle"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(p))
}

func testBatch(t *testing.T, a store.Adapter) {
	ctx := context.Background()
	set(t, a, "exists", doc("", "x", nil))

	results := store.SetBatch(ctx, a, []store.BatchItem{
		{ID: "b1", Doc: doc("", "1", nil)},
		{ID: "exists", Doc: doc("", "2", nil), Opts: store.SetOptions{CreateOnly: true}},
		{ID: "b2", Doc: doc("", "3", nil)},
	})
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, store.ErrConflict)
	assert.NoError(t, results[2].Err)

	failed := store.Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "exists", failed[0].ID)

	assert.NotNil(t, get(t, a, "b1"))
	assert.NotNil(t, get(t, a, "b2"))
}
