// tools_init.go implements docstore_init, the one tool that works
// without an existing project.

package mcp

import (
	"context"
	"log/slog"

	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/log"
	"github.com/jpl-au/docstore/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

// initStore handles docstore_init tool calls.
func (h *handlers) initStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.svc != nil {
		return mcp.NewToolResultError("store already initialised"), nil
	}

	kind := store.Kind(getString(req, "backend", ""))
	root, err := document.Init(ctx, h.dir, kind, false)

	log.Event("mcp:init", "init").Actor(h.opts.Actor).Detail("backend", kind).Write(err)

	if err != nil {
		return errResult(err)
	}

	svc, err := document.OpenRoot(ctx, root, h.opts)
	if err != nil {
		return mcp.NewToolResultError("init succeeded but failed to open store: " + err.Error()), nil
	}
	h.svc = svc

	slog.Info("store initialised", "root", root, "backend", svc.Kind())
	return mcp.NewToolResultText("store initialised (" + string(svc.Kind()) + ")"), nil
}
