package document

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/processor"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/jpl-au/docstore/internal/validate"
)

// setupService initialises a project with the given backend and opens it.
func setupService(t *testing.T, kind store.Kind) *Service {
	t.Helper()
	t.Setenv(config.EnvBackend, "")
	ctx := context.Background()

	root, err := Init(ctx, t.TempDir(), kind, false)
	require.NoError(t, err)
	cfg, err := config.LoadProject(root)
	require.NoError(t, err)
	require.Equal(t, kind, cfg.Kind())

	svc, err := Open(ctx, root, cfg, Options{Actor: "tester"})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestService_Relational(t *testing.T) {
	svc := setupService(t, store.KindRelational)
	ctx := context.Background()
	assert.Equal(t, store.KindRelational, svc.Kind())
	assert.Empty(t, svc.NS())

	res, err := svc.Set(ctx, "/posts/hello.md", store.Document{Content: "hi"}, store.SetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "posts/hello", res.ID)
	assert.True(t, res.Created)

	doc, err := svc.Get(ctx, "posts/hello")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "hi", doc.Content)

	_, err = svc.Delete(ctx, "posts/hello", store.DeleteOptions{Soft: true})
	require.NoError(t, err)
	raw, err := svc.RawGet(ctx, "posts/hello")
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.NotNil(t, raw.DeletedAt)

	n, err := svc.Vacuum(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestService_ValidatesInput(t *testing.T) {
	svc := setupService(t, store.KindRelational)
	ctx := context.Background()

	_, err := svc.Set(ctx, "../escape", store.Document{}, store.SetOptions{})
	assert.ErrorIs(t, err, validate.ErrInvalidPath)
	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, validate.ErrInvalidPath)

	big := int64(4)
	svc.cfg.Limits.MaxContent = &big
	_, err = svc.Set(ctx, "a", store.Document{Content: "too long"}, store.SetOptions{})
	assert.ErrorIs(t, err, validate.ErrContentTooLarge)
}

func TestService_SetBatch(t *testing.T) {
	svc := setupService(t, store.KindRelational)
	ctx := context.Background()

	results := svc.SetBatch(ctx, []store.BatchItem{
		{ID: "a", Doc: store.Document{Content: "1"}},
		{ID: "..", Doc: store.Document{Content: "2"}},
		{ID: "a", Doc: store.Document{Content: "3"}, Opts: store.SetOptions{CreateOnly: true}},
		{ID: "b", Doc: store.Document{Content: "4"}},
	})
	require.Len(t, results, 4)
	failed := store.Failed(results)
	require.Len(t, failed, 2)
	assert.Equal(t, "..", failed[0].ID)
	assert.ErrorIs(t, failed[1].Err, store.ErrConflict)
}

func TestService_SetBatch_StopsOnCancel(t *testing.T) {
	svc := setupService(t, store.KindRelational)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := svc.SetBatch(ctx, []store.BatchItem{
		{ID: "a", Doc: store.Document{Content: "1"}},
		{ID: "b", Doc: store.Document{Content: "2"}},
	})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}

	d, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestService_PrefixIsNormalised(t *testing.T) {
	for _, kind := range []store.Kind{store.KindRelational, store.KindAnalytical} {
		t.Run(string(kind), func(t *testing.T) {
			svc := setupService(t, kind)
			ctx := context.Background()
			for _, id := range []string{"posts/a", "posts/b", "pages/c"} {
				_, err := svc.Set(ctx, id, store.Document{Content: "body of " + id}, store.SetOptions{})
				require.NoError(t, err)
			}

			for _, prefix := range []string{"/posts", "./posts/", "posts/a.md"} {
				page, err := svc.List(ctx, store.Filter{Prefix: prefix})
				require.NoError(t, err, prefix)
				assert.NotZero(t, page.Total, prefix)
				for _, d := range page.Documents {
					assert.Contains(t, d.ID, "posts/", prefix)
				}

				page, err = svc.Search(ctx, store.Query{Text: "body", Filter: store.Filter{Prefix: prefix}})
				require.NoError(t, err, prefix)
				assert.Equal(t, page.Total, len(page.Documents), prefix)
				assert.NotZero(t, page.Total, prefix)
			}
		})
	}
}

func TestService_AnalyticalOnlyOperations(t *testing.T) {
	svc := setupService(t, store.KindRelational)
	ctx := context.Background()

	_, err := svc.Publish(ctx, analytical.PublishRequest{Documents: []analytical.StagedDoc{{ID: "a"}}})
	assert.ErrorIs(t, err, service.ErrUnsupported)
	_, err = svc.Actions(ctx, analytical.ActionFilter{})
	assert.ErrorIs(t, err, service.ErrUnsupported)
	_, err = svc.Process(ctx, processor.RunOptions{}, nil)
	assert.True(t, IsUnsupported(err))
	_, err = svc.In("other")
	assert.ErrorIs(t, err, service.ErrUnsupported)
	assert.ErrorIs(t, svc.Relate(ctx, analytical.Relation{Type: "t", From: "a", To: "b"}), service.ErrUnsupported)
}

func TestService_PublishProcess(t *testing.T) {
	svc := setupService(t, store.KindAnalytical)
	ctx := context.Background()
	assert.Equal(t, "default", svc.NS())

	a, err := svc.Publish(ctx, analytical.PublishRequest{Documents: []analytical.StagedDoc{
		{ID: "guide/intro.md", Content: "welcome"},
		{ID: "guide/setup", Content: "install"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "tester", a.Actor)
	assert.Equal(t, "default", a.NS)

	pending, err := svc.Actions(ctx, analytical.ActionFilter{Status: analytical.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	rep, err := svc.Process(ctx, processor.RunOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Completed)

	got, err := svc.Action(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, analytical.StatusCompleted, got.Status)

	doc, err := svc.Get(ctx, "guide/intro")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "welcome", doc.Content)

	_, err = svc.Publish(ctx, analytical.PublishRequest{Documents: []analytical.StagedDoc{{ID: "../x"}}})
	assert.ErrorIs(t, err, validate.ErrInvalidPath)
}

func TestService_Namespaces(t *testing.T) {
	svc := setupService(t, store.KindAnalytical)
	ctx := context.Background()

	other, err := svc.In("other")
	require.NoError(t, err)
	assert.Equal(t, "other", other.NS())

	_, err = other.Set(ctx, "a", store.Document{Content: "x"}, store.SetOptions{})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, other.Relate(ctx, analytical.Relation{Type: "cites", From: "a", To: "b"}))
	out, err := other.Relations(ctx, "a", "", false)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	in, err := svc.Relations(ctx, "b", "", true)
	require.NoError(t, err)
	assert.Empty(t, in)

	// Closing a sibling leaves the shared backend open.
	require.NoError(t, other.Close())
	_, err = svc.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestService_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	svc := setupService(t, store.KindGit)
	ctx := context.Background()

	res, err := svc.Set(ctx, "notes/a", store.Document{Content: "body"}, store.SetOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Version)

	// The project directory itself is never content.
	page, err := svc.List(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
