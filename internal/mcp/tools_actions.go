// tools_actions.go implements the analytical tools: publish, action,
// process and relations. On other backends the service returns
// ErrUnsupported, which reaches the client as a tool error.

package mcp

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/processor"
	"github.com/mark3labs/mcp-go/mcp"
)

// publish handles docstore_publish tool calls.
func (h *handlers) publish(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}

	// Round-trip the argument map so the tool accepts exactly the body
	// POST /publish does.
	raw, err := json.Marshal(args(req))
	if err != nil {
		return errResult(err)
	}
	var body analytical.PublishBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return mcp.NewToolResultError("invalid documents: " + err.Error()), nil
	}

	pr, err := body.Request()
	if err != nil {
		return errResult(err)
	}
	a, err := h.svc.Publish(ctx, pr)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]any{"actionId": a.ID, "status": a.Status})
}

// action handles docstore_action tool calls.
func (h *handlers) action(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}

	if id := getString(req, "id", ""); id != "" {
		a, err := h.svc.Action(ctx, id)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(a)
	}

	st, err := analytical.ParseStatusFilter(getString(req, "status", ""))
	if err != nil {
		return errResult(err)
	}
	list, err := h.svc.Actions(ctx, analytical.ActionFilter{
		NS:     getString(req, "ns", ""),
		Status: st,
		Limit:  getInt(req, "limit", 0),
	})
	if err != nil {
		return errResult(err)
	}
	return jsonResult(list)
}

// process handles docstore_process tool calls.
func (h *handlers) process(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.requireInit(); err != nil {
		return err, nil
	}
	rep, err := h.svc.Process(ctx, processor.RunOptions{
		NS:    getString(req, "ns", ""),
		Limit: getInt(req, "limit", 0),
	}, nil)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(rep)
}

// relations handles docstore_relations tool calls.
func (h *handlers) relations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	edges, err := svc.Relations(ctx, id, getString(req, "type", ""), getBool(req, "incoming", false))
	if err != nil {
		return errResult(err)
	}
	return jsonResult(edges)
}
