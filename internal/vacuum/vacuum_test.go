package vacuum

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
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

func TestRun(t *testing.T) {
	for _, kind := range store.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			svc := open(t, kind)
			ctx := context.Background()

			_, err := svc.Set(ctx, "a", store.Document{Content: "x"}, store.SetOptions{})
			require.NoError(t, err)
			_, err = svc.Delete(ctx, "a", store.DeleteOptions{Soft: true})
			require.NoError(t, err)

			var buf bytes.Buffer
			res, err := Run(ctx, &buf, svc, Options{})
			require.NoError(t, err)
			assert.Positive(t, res.Removed)
			assert.Contains(t, buf.String(), "Vacuumed")

			raw, err := svc.RawGet(ctx, "a")
			require.NoError(t, err)
			assert.Nil(t, raw)
		})
	}
}

func TestRun_OlderThanKeepsRecent(t *testing.T) {
	svc := open(t, store.KindRelational)
	ctx := context.Background()

	_, err := svc.Set(ctx, "a", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)
	_, err = svc.Delete(ctx, "a", store.DeleteOptions{Soft: true})
	require.NoError(t, err)

	keep := 3 * 24 * time.Hour
	var buf bytes.Buffer
	res, err := Run(ctx, &buf, svc, Options{OlderThan: &keep})
	require.NoError(t, err)
	assert.Zero(t, res.Removed)
	assert.Equal(t, "3d", res.OlderThan)
	assert.Equal(t, "Nothing to vacuum\n", buf.String())

	raw, err := svc.RawGet(ctx, "a")
	require.NoError(t, err)
	assert.NotNil(t, raw)
}
