package gitstore

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/store/storetest"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func setupStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	requireGit(t)

	s, err := Open(context.Background(), t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// commitRaw writes files straight into the working tree and commits them,
// bypassing the adapter.
func commitRaw(t *testing.T, s *Store, files map[string]string) {
	t.Helper()
	ctx := context.Background()
	for rel, body := range files {
		full := filepath.Join(s.Dir(), filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
		require.NoError(t, s.git.Add(ctx, rel))
	}
	require.NoError(t, s.git.Commit(ctx, "raw"))
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Adapter {
		return setupStore(t)
	})
}

func TestStore_VersionIsBlobHash(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	res, err := s.Set(ctx, "posts/a", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)

	out, err := s.git.Run(ctx, "rev-parse", "HEAD:posts/a.md")
	require.NoError(t, err)
	assert.Equal(t, out, res.Version)
}

func TestStore_EveryMutationIsOneCommit(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Set(ctx, "a", store.Document{Content: "1"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = s.Set(ctx, "a", store.Document{Content: "2"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = s.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)
	_, err = s.Delete(ctx, "a", store.DeleteOptions{})
	require.NoError(t, err)

	out, err := s.git.Run(ctx, "rev-list", "--count", "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "4", out)
}

func TestStore_MDXTakesPrecedence(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	commitRaw(t, s, map[string]string{
		"guide/intro.md":  "from md",
		"guide/intro.mdx": "from mdx",
	})

	d, err := s.Get(ctx, "guide/intro")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "from mdx", d.Content)

	p, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "from mdx", p.Documents[0].Content)

	// Updates go to the file that holds the record.
	_, err = s.Set(ctx, "guide/intro", store.Document{Content: "updated"}, store.SetOptions{})
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(s.Dir(), "guide", "intro.md"))
	require.NoError(t, err)
	assert.Equal(t, "from md", string(b))

	// Hard delete removes both files.
	res, err := s.Delete(ctx, "guide/intro", store.DeleteOptions{})
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	d, err = s.Get(ctx, "guide/intro")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestStore_UppercaseExtension(t *testing.T) {
	s := setupStore(t)
	commitRaw(t, s, map[string]string{"README.MD": "hello"})

	d, err := s.Get(context.Background(), "README")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "hello", d.Content)
}

func TestStore_DefaultExtension(t *testing.T) {
	s := setupStore(t, WithExtension("mdx"))
	_, err := s.Set(context.Background(), "a", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(s.Dir(), "a.mdx"))
}

func TestStore_IgnoresOtherFiles(t *testing.T) {
	s := setupStore(t)
	commitRaw(t, s, map[string]string{
		"notes.txt":      "needle",
		".github/x.md":   "needle",
		"docs/real.md":   "needle",
		"docs/data.json": "{}",
	})

	p, err := s.List(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "docs/real", p.Documents[0].ID)

	p, err = s.Search(context.Background(), store.Query{Text: "needle"})
	require.NoError(t, err)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "docs/real", p.Documents[0].ID)
}

func TestStore_EmptyRepository(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	d, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, d)

	p, err := s.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Total)

	p, err = s.Search(ctx, store.Query{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Total)
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
	assert.Zero(t, n)

	n, err = s.Vacuum(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoFileExists(t, filepath.Join(s.Dir(), "gone.md"))

	raw, err := s.RawGet(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestOpen_BranchMismatch(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()

	_, err := Open(context.Background(), dir, WithBranch("main"))
	require.NoError(t, err)

	_, err = Open(context.Background(), dir, WithBranch("content"))
	assert.ErrorIs(t, err, ErrBranchMismatch)
}

func TestClient_Lock(t *testing.T) {
	s := setupStore(t)

	unlock, err := s.git.Lock(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(s.Dir(), ".git", "docstore.lock"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = s.git.Lock(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	assert.NoFileExists(t, filepath.Join(s.Dir(), ".git", "docstore.lock"))
}
