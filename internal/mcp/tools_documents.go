// tools_documents.go implements the record tools: get, set, delete, list
// and search. Every tool is a thin call into the service; validation,
// timeouts and audit logging happen there.

package mcp

import (
	"context"
	"sort"

	"github.com/jpl-au/docstore/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// getDocument handles docstore_get tool calls.
func (h *handlers) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil //nolint:nilerr
	}
	svc, err := h.scoped(req)
	if err != nil {
		return errResult(err)
	}

	var doc *store.Document
	if getBool(req, "raw", false) {
		doc, err = svc.RawGet(ctx, id)
	} else {
		doc, err = svc.Get(ctx, id)
	}
	if err != nil {
		return errResult(err)
	}
	if doc == nil {
		return mcp.NewToolResultError("not found: " + id), nil
	}
	return jsonResult(doc.ToJSON(false))
}

// setDocument handles docstore_set tool calls.
func (h *handlers) setDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil //nolint:nilerr
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content is required"), nil //nolint:nilerr
	}
	svc, err := h.scoped(req)
	if err != nil {
		return errResult(err)
	}

	doc := store.Document{
		Type:    getString(req, "type", ""),
		Context: args(req)["context"],
		Data:    getMap(req, "data"),
		Content: content,
	}
	opts := store.SetOptions{
		CreateOnly: getBool(req, "create_only", false),
		UpdateOnly: getBool(req, "update_only", false),
		Version:    getString(req, "version", ""),
	}
	res, err := svc.Set(ctx, id, doc, opts)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

// deleteDocument handles docstore_delete tool calls.
func (h *handlers) deleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil //nolint:nilerr
	}
	svc, err := h.scoped(req)
	if err != nil {
		return errResult(err)
	}
	res, err := svc.Delete(ctx, id, store.DeleteOptions{Soft: getBool(req, "soft", false)})
	if err != nil {
		return errResult(err)
	}
	return jsonResult(res)
}

// listDocuments handles docstore_list tool calls.
func (h *handlers) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}
	svc, err := h.scoped(req)
	if err != nil {
		return errResult(err)
	}

	f := store.Filter{
		Types:  getStrings(req, "types"),
		Prefix: getString(req, "prefix", ""),
		Where:  predicates(getMap(req, "where")),
		SortBy: getString(req, "sort_by", ""),
		Limit:  getInt(req, "limit", 0),
		Offset: getInt(req, "offset", 0),
	}
	if getBool(req, "desc", false) {
		f.SortOrder = store.Desc
	}
	page, err := svc.List(ctx, f)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(page.ToJSON(false))
}

// searchDocuments handles docstore_search tool calls.
func (h *handlers) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}
	text, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil //nolint:nilerr
	}
	svc, err := h.scoped(req)
	if err != nil {
		return errResult(err)
	}

	q := store.Query{
		Text:   text,
		Fields: getStrings(req, "fields"),
		Filter: store.Filter{
			Types:  getStrings(req, "types"),
			Limit:  getInt(req, "limit", 0),
			Offset: getInt(req, "offset", 0),
		},
	}
	page, err := svc.Search(ctx, q)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(page.ToJSON(true))
}

// predicates turns a where object into predicates in path order, so the
// same arguments always build the same filter.
func predicates(where map[string]any) []store.Predicate {
	if len(where) == 0 {
		return nil
	}
	paths := make([]string, 0, len(where))
	for p := range where {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	preds := make([]store.Predicate, 0, len(paths))
	for _, p := range paths {
		preds = append(preds, store.Predicate{Path: p, Value: where[p]})
	}
	return preds
}
