// mcp.go contributes the docstore_actions tool to the MCP server.

package publish

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/analytical"
)

func actionsTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("docstore_actions",
			mcp.WithDescription("List staged Actions oldest first (analytical backend)"),
			mcp.WithString("status", mcp.Description("pending (default), active, completed, failed or all")),
			mcp.WithNumber("limit", mcp.Description("Maximum Actions to return")),
		),
		Handler: listActions,
	}
}

func listActions(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := analytical.ParseStatusFilter(req.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil //nolint:nilerr
	}
	svc := extCtx.Service()
	actions, err := svc.Actions(ctx, analytical.ActionFilter{
		NS:     svc.NS(),
		Status: st,
		Limit:  req.GetInt("limit", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil //nolint:nilerr
	}
	if actions == nil {
		actions = []analytical.Action{}
	}
	b, err := json.Marshal(actions)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil //nolint:nilerr
	}
	return mcp.NewToolResultText(string(b)), nil
}
