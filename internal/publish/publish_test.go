package publish

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/processor"
	"github.com/jpl-au/docstore/internal/service"
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

func body(ids ...string) analytical.PublishBody {
	var b analytical.PublishBody
	for _, id := range ids {
		content := "body of " + id
		b.Documents = append(b.Documents, analytical.PublishDoc{ID: id, Content: &content})
	}
	return b
}

func TestPublishListProcess(t *testing.T) {
	svc := open(t, store.KindAnalytical)
	ctx := context.Background()

	var buf bytes.Buffer
	a, err := Run(ctx, &buf, svc, body("notes/a", "notes/b"))
	require.NoError(t, err)
	assert.Equal(t, analytical.StatusPending, a.Status)
	assert.Contains(t, buf.String(), "Staged 2 document(s)")

	buf.Reset()
	pending, err := List(ctx, &buf, svc, analytical.ActionFilter{Status: analytical.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Contains(t, buf.String(), a.ID)

	buf.Reset()
	rep, err := Process(ctx, &buf, svc, ProcessOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Completed)
	assert.Contains(t, buf.String(), "completed")

	buf.Reset()
	got, err := Show(ctx, &buf, svc, a.ID)
	require.NoError(t, err)
	assert.Equal(t, analytical.StatusCompleted, got.Status)
	assert.Contains(t, buf.String(), "Progress:  2/2")

	doc, err := svc.Get(ctx, "notes/b")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "body of notes/b", doc.Content)

	buf.Reset()
	rep, err = Process(ctx, &buf, svc, ProcessOptions{})
	require.NoError(t, err)
	assert.Zero(t, rep.Claimed)
	assert.Contains(t, buf.String(), "No pending actions")
}

func TestPublish_MissingContent(t *testing.T) {
	svc := open(t, store.KindAnalytical)
	b := analytical.PublishBody{Documents: []analytical.PublishDoc{{ID: "a"}}}
	_, err := Run(context.Background(), &bytes.Buffer{}, svc, b)
	assert.Error(t, err)
}

func TestPublish_Unsupported(t *testing.T) {
	svc := open(t, store.KindRelational)
	_, err := Run(context.Background(), &bytes.Buffer{}, svc, body("a"))
	assert.ErrorIs(t, err, service.ErrUnsupported)
}

func TestProcess_EveryStopsOnCancel(t *testing.T) {
	svc := open(t, store.KindAnalytical)
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, &bytes.Buffer{}, svc, body("a"))
	require.NoError(t, err)

	rep, err := Process(ctx, &bytes.Buffer{}, svc, ProcessOptions{
		Run:   processor.RunOptions{Limit: 10},
		Every: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Completed)
}
