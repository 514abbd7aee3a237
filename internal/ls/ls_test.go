package ls

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/store"
)

func setup(t *testing.T) *document.Service {
	t.Helper()
	t.Setenv(config.EnvBackend, "")
	ctx := context.Background()
	root, err := document.Init(ctx, t.TempDir(), store.KindRelational, false)
	require.NoError(t, err)
	svc, err := document.OpenRoot(ctx, root, document.Options{Actor: "tester"})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	for _, id := range []string{"posts/b", "posts/a", "about"} {
		_, err := svc.Set(ctx, id, store.Document{Type: "page", Content: id}, store.SetOptions{})
		require.NoError(t, err)
	}
	return svc
}

func TestRun_IDs(t *testing.T) {
	svc := setup(t)
	var buf bytes.Buffer
	res, err := Run(context.Background(), &buf, svc, Options{
		Filter: store.Filter{Prefix: "posts/", SortBy: "id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page.Total)
	assert.Equal(t, "posts/a\nposts/b\n", buf.String())
}

func TestRun_PageFooter(t *testing.T) {
	svc := setup(t)
	var buf bytes.Buffer
	res, err := Run(context.Background(), &buf, svc, Options{
		Filter: store.Filter{SortBy: "id", Limit: 1, Offset: 1},
	})
	require.NoError(t, err)
	assert.True(t, res.Page.HasMore)
	assert.Equal(t, "posts/a\n(2-2 of 3)\n", buf.String())

	j := res.ToJSON()
	assert.Equal(t, 3, j.Total)
	require.Len(t, j.Documents, 1)
}

func TestRun_Tree(t *testing.T) {
	svc := setup(t)
	var buf bytes.Buffer
	_, err := Run(context.Background(), &buf, svc, Options{Layout: LayoutTree})
	require.NoError(t, err)
	assert.Equal(t, "├── about\n└── posts/\n    ├── a\n    └── b\n", buf.String())
}

func TestRun_UnknownLayout(t *testing.T) {
	svc := setup(t)
	_, err := Run(context.Background(), &bytes.Buffer{}, svc, Options{Layout: "grid"})
	assert.Error(t, err)
}
