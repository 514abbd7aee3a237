package mcp

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/store"
)

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), v))
}

func setup(t *testing.T, kind store.Kind) *handlers {
	t.Helper()
	t.Setenv(config.EnvBackend, "")
	h := &handlers{dir: t.TempDir(), opts: document.Options{Actor: "tester", Source: "mcp"}}
	res, err := h.initStore(context.Background(), call(map[string]any{"backend": string(kind)}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	require.NotNil(t, h.svc)
	t.Cleanup(func() { h.svc.Close() })
	return h
}

func TestUninitialised(t *testing.T) {
	h := &handlers{dir: t.TempDir()}
	res, err := h.getDocument(context.Background(), call(map[string]any{"id": "a"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, ErrNotInitialised, text(t, res))
}

func TestInit_Twice(t *testing.T) {
	h := setup(t, store.KindRelational)
	res, err := h.initStore(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestDocuments(t *testing.T) {
	h := setup(t, store.KindRelational)
	ctx := context.Background()

	res, err := h.setDocument(ctx, call(map[string]any{
		"id":      "posts/hello.md",
		"content": "hello world",
		"type":    "post",
		"data":    map[string]any{"author": map[string]any{"name": "ann"}},
	}))
	require.NoError(t, err)
	var set store.SetResult
	decode(t, res, &set)
	assert.Equal(t, "posts/hello", set.ID)
	assert.True(t, set.Created)

	res, err = h.setDocument(ctx, call(map[string]any{
		"id": "posts/hello", "content": "again", "create_only": true,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "conflict")

	res, err = h.getDocument(ctx, call(map[string]any{"id": "posts/hello"}))
	require.NoError(t, err)
	var doc store.DocJSON
	decode(t, res, &doc)
	assert.Equal(t, "hello world", doc.Content)
	assert.Equal(t, set.Version, doc.Version)

	res, err = h.listDocuments(ctx, call(map[string]any{
		"where": map[string]any{"author.name": "ann"},
		"types": []any{"post"},
	}))
	require.NoError(t, err)
	var page store.PageJSON
	decode(t, res, &page)
	assert.Equal(t, 1, page.Total)

	res, err = h.searchDocuments(ctx, call(map[string]any{"query": "world"}))
	require.NoError(t, err)
	decode(t, res, &page)
	require.Len(t, page.Documents, 1)
	require.NotNil(t, page.Documents[0].Score)

	res, err = h.deleteDocument(ctx, call(map[string]any{"id": "posts/hello"}))
	require.NoError(t, err)
	var del store.DeleteResult
	decode(t, res, &del)
	assert.True(t, del.Deleted)

	res, err = h.getDocument(ctx, call(map[string]any{"id": "posts/hello"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSet_MissingContent(t *testing.T) {
	h := setup(t, store.KindRelational)
	res, err := h.setDocument(context.Background(), call(map[string]any{"id": "a"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestPublishProcess(t *testing.T) {
	h := setup(t, store.KindAnalytical)
	ctx := context.Background()

	res, err := h.publish(ctx, call(map[string]any{
		"documents": []any{
			map[string]any{"id": "a", "content": "one"},
			map[string]any{"id": "b", "content": "two", "data": map[string]any{"n": 2}},
		},
		"commit": "abc123",
	}))
	require.NoError(t, err)
	var staged struct {
		ActionID string `json:"actionId"`
		Status   string `json:"status"`
	}
	decode(t, res, &staged)
	assert.Equal(t, "pending", staged.Status)

	res, err = h.action(ctx, call(nil))
	require.NoError(t, err)
	var pending []map[string]any
	decode(t, res, &pending)
	assert.Len(t, pending, 1)

	res, err = h.process(ctx, call(nil))
	require.NoError(t, err)
	var rep struct {
		Completed int `json:"completed"`
		Failed    int `json:"failed"`
	}
	decode(t, res, &rep)
	assert.Equal(t, 1, rep.Completed)
	assert.Zero(t, rep.Failed)

	res, err = h.action(ctx, call(map[string]any{"id": staged.ActionID}))
	require.NoError(t, err)
	var a struct {
		Status string `json:"status"`
		Meta   struct {
			Commit string `json:"commit"`
		} `json:"meta"`
	}
	decode(t, res, &a)
	assert.Equal(t, "completed", a.Status)
	assert.Equal(t, "abc123", a.Meta.Commit)

	res, err = h.listDocuments(ctx, call(nil))
	require.NoError(t, err)
	var page store.PageJSON
	decode(t, res, &page)
	assert.Equal(t, 2, page.Total)
}

func TestPublish_Unsupported(t *testing.T) {
	h := setup(t, store.KindRelational)
	res, err := h.publish(context.Background(), call(map[string]any{
		"documents": []any{map[string]any{"id": "a", "content": "one"}},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAction_InvalidStatus(t *testing.T) {
	h := setup(t, store.KindAnalytical)
	res, err := h.action(context.Background(), call(map[string]any{"status": "bogus"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestResource(t *testing.T) {
	h := setup(t, store.KindRelational)
	ctx := context.Background()
	_, err := h.svc.Set(ctx, "notes/a", store.Document{Content: "body"}, store.SetOptions{})
	require.NoError(t, err)

	contents, err := h.readDocumentResource(ctx, "docstore://documents/notes/a")
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "body", contents[0].(mcp.TextResourceContents).Text)

	_, err = h.readDocumentResource(ctx, "docstore://documents/notes/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseDocumentURI(t *testing.T) {
	id, err := parseDocumentURI("docstore://documents/a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", id)

	_, err = parseDocumentURI("docstore://documents/")
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = parseDocumentURI("file://documents/a")
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestPredicates_Sorted(t *testing.T) {
	got := predicates(map[string]any{"b": 2, "a": 1})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Path)
	assert.Equal(t, "b", got[1].Path)
	assert.Nil(t, predicates(nil))
}

func TestGuide(t *testing.T) {
	h := &handlers{}
	res, err := h.getGuide(context.Background(), call(map[string]any{"topic": "publish"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "docstore process")

	res, err = h.getGuide(context.Background(), call(map[string]any{"topic": "nope"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "available_topics")
}
