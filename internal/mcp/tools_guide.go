// tools_guide.go implements docstore_guide, giving clients the same help
// pages as `docstore guide`.

package mcp

import (
	"context"
	"fmt"

	"github.com/jpl-au/docstore/guide"
	"github.com/jpl-au/docstore/internal/log"
	"github.com/mark3labs/mcp-go/mcp"
)

// getGuide handles docstore_guide tool calls.
func (h *handlers) getGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:revive // ctx for future use
	topic := getString(req, "topic", "")

	content, err := guide.Get(topic)

	log.Event("mcp:guide", "read").Detail("topic", topic).Write(err)

	if err != nil {
		topics, listErr := guide.List()
		if listErr != nil {
			return nil, fmt.Errorf("listing guides: %w", listErr)
		}
		return jsonResult(map[string]any{
			"error":            err.Error(),
			"available_topics": topics,
		})
	}
	return mcp.NewToolResultText(content), nil
}
