package get

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

	_, err = svc.Set(ctx, "notes/a", store.Document{Content: "one\ntwo\nthree\n"}, store.SetOptions{})
	require.NoError(t, err)
	return svc
}

func TestRun(t *testing.T) {
	svc := setup(t)
	var buf bytes.Buffer
	res, err := Run(context.Background(), &buf, svc, "notes/a", Options{})
	require.NoError(t, err)
	assert.Equal(t, "notes/a", res.Document.ID)
	assert.Equal(t, "one\ntwo\nthree\n", buf.String())
}

func TestRun_LineRange(t *testing.T) {
	svc := setup(t)
	var buf bytes.Buffer
	_, err := Run(context.Background(), &buf, svc, "notes/a", Options{StartLine: 2, EndLine: 2, LineNumbers: true})
	require.NoError(t, err)
	assert.Equal(t, "     2\ttwo\n", buf.String())
}

func TestRun_NotFound(t *testing.T) {
	svc := setup(t)
	_, err := Run(context.Background(), &bytes.Buffer{}, svc, "missing", Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRun_RawSeesSoftDeleted(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	_, err := svc.Delete(ctx, "notes/a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	_, err = Run(ctx, &bytes.Buffer{}, svc, "notes/a", Options{})
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := Run(ctx, &bytes.Buffer{}, svc, "notes/a", Options{Raw: true})
	require.NoError(t, err)
	assert.NotNil(t, res.Document.DeletedAt)
}
