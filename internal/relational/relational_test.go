package relational_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/relational"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/store/storetest"
)

// setupStore creates a temporary relational store for testing.
func setupStore(t *testing.T) *relational.Store {
	t.Helper()

	s, err := relational.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Adapter {
		return setupStore(t)
	})
}

func TestStore_InitIdempotent(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.Init())
	assert.Equal(t, store.KindRelational, s.Kind())
}

func TestStore_VersionsAreCounters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	res, err := s.Set(ctx, "a", store.Document{Content: "1"}, store.SetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1", res.Version)

	res, err = s.Set(ctx, "a", store.Document{Content: "2"}, store.SetOptions{Version: "1"})
	require.NoError(t, err)
	assert.Equal(t, "2", res.Version)

	_, err = s.Set(ctx, "a", store.Document{Content: "3"}, store.SetOptions{Version: "not-a-number"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestStore_SoftDeleteBumpsVersion(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, "a", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = s.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	raw, err := s.RawGet(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "2", raw.Version)

	res, err := s.Set(ctx, "a", store.Document{Content: "y"}, store.SetOptions{})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "3", res.Version)
}

func TestStore_PrefixEscapesWildcards(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"50%_off/a", "50xyoff/b", "a_b/c", "axb/d"} {
		_, err := s.Set(ctx, id, store.Document{}, store.SetOptions{})
		require.NoError(t, err)
	}

	p, err := s.List(ctx, store.Filter{Prefix: "50%_"})
	require.NoError(t, err)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "50%_off/a", p.Documents[0].ID)

	p, err = s.List(ctx, store.Filter{Prefix: "a_b"})
	require.NoError(t, err)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "a_b/c", p.Documents[0].ID)
}

func TestStore_InsertionOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"z", "a", "m"} {
		_, err := s.Set(ctx, id, store.Document{}, store.SetOptions{})
		require.NoError(t, err)
	}
	p, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)

	var got []string
	for _, d := range p.Documents {
		got = append(got, d.ID)
	}
	assert.Equal(t, []string{"z", "a", "m"}, got)
}

func TestStore_ContextObject(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	want := map[string]any{"@vocab": "https://schema.org/"}
	_, err := s.Set(ctx, "a", store.Document{Context: want}, store.SetOptions{})
	require.NoError(t, err)

	d, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, want, d.Context)
}

func TestStore_Vacuum(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"keep", "gone"} {
		_, err := s.Set(ctx, id, store.Document{}, store.SetOptions{})
		require.NoError(t, err)
	}
	_, err := s.Delete(ctx, "gone", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	hour := time.Hour
	n, err := s.Vacuum(ctx, &hour)
	require.NoError(t, err)
	assert.Zero(t, n, "recent deletions survive an age cutoff")

	n, err = s.Vacuum(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	raw, err := s.RawGet(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, raw)

	d, err := s.Get(ctx, "keep")
	require.NoError(t, err)
	assert.NotNil(t, d)
}

func TestStore_Checkpoint(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.Checkpoint(context.Background()))
}
