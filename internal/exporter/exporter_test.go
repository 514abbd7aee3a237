package exporter_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/exporter"
	"github.com/jpl-au/docstore/internal/importer"
	"github.com/jpl-au/docstore/internal/store"
)

func open(t *testing.T, kind store.Kind) *document.Service {
	t.Helper()
	t.Setenv(config.EnvBackend, "")
	ctx := context.Background()
	root, err := document.Init(ctx, t.TempDir(), kind, false)
	require.NoError(t, err)
	svc, err := document.OpenRoot(ctx, root, document.Options{Actor: "tester"})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

// TestRoundTrip exports from one backend and imports into another.
func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := open(t, store.KindRelational)
	for id, d := range map[string]store.Document{
		"posts/hello": {Type: "post", Data: map[string]any{"title": "Hello"}, Content: "hello\n"},
		"posts/bye":   {Type: "post", Content: "bye\n"},
		"about":       {Content: "about\n"},
	} {
		_, err := src.Set(ctx, id, d, store.SetOptions{})
		require.NoError(t, err)
	}

	dir := t.TempDir()
	var buf bytes.Buffer
	res, err := exporter.Run(ctx, &buf, src, dir, exporter.Options{Prefix: "posts/"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Exported)
	assert.FileExists(t, filepath.Join(dir, "posts", "hello.md"))
	assert.NoFileExists(t, filepath.Join(dir, "about.md"))

	_, err = exporter.Run(ctx, &buf, src, dir, exporter.Options{Prefix: "posts/"})
	assert.ErrorContains(t, err, "file exists")

	dst := open(t, store.KindAnalytical)
	imp, err := importer.Run(ctx, &buf, dst, dir, importer.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, imp.Imported)
	assert.Equal(t, []string{"posts/bye", "posts/hello"}, imp.IDs)

	got, err := dst.Get(ctx, "posts/hello")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "post", got.Type)
	assert.Equal(t, "Hello", got.Data["title"])
	assert.Equal(t, "hello\n", got.Content)
}

func TestExport_UnknownPrefix(t *testing.T) {
	svc := open(t, store.KindRelational)
	_, err := exporter.Run(context.Background(), &bytes.Buffer{}, svc, t.TempDir(), exporter.Options{Prefix: "none/"})
	assert.Error(t, err)
}

func TestImport_PrecedenceAndHidden(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".drafts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("md"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mdx"), []byte("mdx"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".drafts", "b.md"), []byte("hidden"), 0644))

	svc := open(t, store.KindRelational)

	var buf bytes.Buffer
	res, err := importer.Run(ctx, &buf, svc, dir, importer.Options{DryRun: true, Prefix: "imp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"imp/a"}, res.IDs)
	assert.Zero(t, res.Imported)

	res, err = importer.Run(ctx, &buf, svc, dir, importer.Options{Hidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{".drafts/b", "a"}, res.IDs)

	got, err := svc.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "mdx", got.Content)
}

func TestImport_PartialFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.md"), []byte("ok"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte("---\ntitle: x\nno end"), 0644))

	svc := open(t, store.KindRelational)
	res, err := importer.Run(ctx, &bytes.Buffer{}, svc, dir, importer.Options{})
	assert.ErrorIs(t, err, importer.ErrPartial)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "bad.md", res.Failed[0].File)
}
