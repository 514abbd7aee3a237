package analytical_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/store/storetest"
)

func setupStore(t *testing.T) *analytical.Store {
	t.Helper()

	s, err := analytical.Open(filepath.Join(t.TempDir(), "analytical.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Adapter {
		return setupStore(t)
	})
}

func TestConformance_Namespace(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Adapter {
		return setupStore(t).Namespace("tenant")
	})
}

func TestStore_Kind(t *testing.T) {
	s := setupStore(t)
	assert.Equal(t, store.KindAnalytical, s.Kind())
	assert.Equal(t, analytical.DefaultNamespace, s.NS())
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	a := s.Namespace("a")
	b := s.Namespace("b")
	_, err := a.Set(ctx, "x", store.Document{Content: "in a"}, store.SetOptions{})
	require.NoError(t, err)

	got, err := b.Get(ctx, "x")
	require.NoError(t, err)
	assert.Nil(t, got)

	page, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	got, err = a.Get(ctx, "x")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "in a", got.Content)
}

func TestStore_LatestRowWins(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.Set(ctx, "a", store.Document{Type: "note", Content: "v1"}, store.SetOptions{})
	require.NoError(t, err)
	second, err := s.Set(ctx, "a", store.Document{Type: "post", Content: "v2"}, store.SetOptions{})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.NotEqual(t, first.Version, second.Version)

	// The superseded row's type must not match.
	page, err := s.List(ctx, store.Filter{Types: []string{"note"}})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.Content)
	assert.Equal(t, second.Version, got.Version)
}

func TestStore_CreatedAtSurvivesUpdates(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, "a", store.Document{Content: "v1"}, store.SetOptions{})
	require.NoError(t, err)
	before, err := s.Get(ctx, "a")
	require.NoError(t, err)

	_, err = s.Set(ctx, "a", store.Document{Content: "v2"}, store.SetOptions{})
	require.NoError(t, err)
	after, err := s.Get(ctx, "a")
	require.NoError(t, err)

	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func TestStore_ListKeepsFirstInsertOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Set(ctx, id, store.Document{Content: id}, store.SetOptions{})
		require.NoError(t, err)
	}
	_, err := s.Set(ctx, "c", store.Document{Content: "rewritten"}, store.SetOptions{})
	require.NoError(t, err)

	page, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	var got []string
	for _, d := range page.Documents {
		got = append(got, d.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestStore_PrefixIsLiteral(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"a_b/1", "axb/2", "a%/3"} {
		_, err := s.Set(ctx, id, store.Document{Content: id}, store.SetOptions{})
		require.NoError(t, err)
	}

	page, err := s.List(ctx, store.Filter{Prefix: "a_"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "a_b/1", page.Documents[0].ID)
}

func TestStore_ContextRoundTrips(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	c := map[string]any{"@vocab": "https://schema.org/"}
	_, err := s.Set(ctx, "a", store.Document{Context: c, Data: map[string]any{"n": 1}, Content: "x"}, store.SetOptions{})
	require.NoError(t, err)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c, got.Context)
	assert.Equal(t, float64(1), got.Data["n"])
}

func TestStore_Vacuum(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, "keep", store.Document{Content: "v1"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = s.Set(ctx, "keep", store.Document{Content: "v2"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = s.Set(ctx, "gone", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = s.Delete(ctx, "gone", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	// Rows: keep x2, gone x2. One shadowed keep row, both gone rows.
	n, err := s.Vacuum(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	got, err := s.Get(ctx, "keep")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.Content)

	raw, err := s.RawGet(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, raw)

	rows, err := s.Query(ctx, `SELECT COUNT(*) AS n FROM things`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0]["n"])
}

func TestStore_VacuumOlderThanKeepsRecentTombstones(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, "a", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = s.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	hour := time.Hour
	n, err := s.Vacuum(ctx, &hour)
	require.NoError(t, err)
	// The live row is shadowed by the tombstone; the tombstone is recent.
	assert.Equal(t, int64(1), n)

	raw, err := s.RawGet(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.NotNil(t, raw.DeletedAt)
}

func TestStore_VacuumScopedToNamespace(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	other := s.Namespace("other")
	_, err := other.Set(ctx, "a", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = other.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	n, err := s.Vacuum(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelations(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.Relate(ctx, analytical.Relation{Type: "cites", From: "a", To: "b"}))
	require.NoError(t, s.Relate(ctx, analytical.Relation{Type: "cites", From: "a", To: "c"}))
	require.NoError(t, s.Relate(ctx, analytical.Relation{Type: "likes", From: "a", To: "b"}))
	// Re-relating replaces the edge's data instead of duplicating it.
	require.NoError(t, s.Relate(ctx, analytical.Relation{Type: "cites", From: "a", To: "b", Data: map[string]any{"page": 3}}))

	out, err := s.Outgoing(ctx, "a", "cites")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "c", out[0].To)
	assert.Equal(t, "b", out[1].To)
	assert.Equal(t, float64(3), out[1].Data["page"])

	all, err := s.Outgoing(ctx, "a", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	in, err := s.Incoming(ctx, "b", "")
	require.NoError(t, err)
	assert.Len(t, in, 2)

	require.NoError(t, s.Unrelate(ctx, "cites", "a", "b"))
	in, err = s.Incoming(ctx, "b", "cites")
	require.NoError(t, err)
	assert.Empty(t, in)

	// Unrelating an absent edge is not an error.
	require.NoError(t, s.Unrelate(ctx, "cites", "x", "y"))
}

func TestRelations_Invalid(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	assert.Error(t, s.Relate(ctx, analytical.Relation{From: "a", To: "b"}))
	assert.Error(t, s.Relate(ctx, analytical.Relation{Type: "t", From: "a", To: "a"}))
	assert.Error(t, s.Relate(ctx, analytical.Relation{Type: "t", From: "../a", To: "b"}))
}

func TestRaw(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Command(ctx, `CREATE TABLE metrics (name TEXT, value INTEGER)`)
	require.NoError(t, err)

	n, err := s.Insert(ctx, "metrics", []map[string]any{
		{"name": "a", "value": 1},
		{"name": "b", "value": 2},
		{"name": "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	rows, err := s.Query(ctx, `SELECT name, value FROM metrics WHERE value IS NOT NULL ORDER BY name`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0]["name"])
	assert.Equal(t, int64(2), rows[1]["value"])

	n, err = s.Command(ctx, `DELETE FROM metrics WHERE value IS NULL`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Insert(ctx, "metrics; DROP TABLE things", []map[string]any{{"name": "x"}})
	assert.ErrorIs(t, err, analytical.ErrInvalidIdentifier)
	_, err = s.Insert(ctx, "metrics", []map[string]any{{"bad col": "x"}})
	assert.ErrorIs(t, err, analytical.ErrInvalidIdentifier)
}
