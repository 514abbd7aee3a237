// tools_util.go extracts typed parameters from MCP's generic argument map.
//
// Extraction is permissive: a missing or mistyped optional parameter falls
// back to the caller's default instead of failing the tool call. LLMs often
// omit optional parameters or send "true" where true was meant.

package mcp

import (
	"github.com/jpl-au/docstore/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
)

func args(req mcp.CallToolRequest) map[string]any {
	m, _ := req.Params.Arguments.(map[string]any)
	return m
}

// getString returns the named string parameter or def.
func getString(req mcp.CallToolRequest, name, def string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return def
}

// getBool returns the named boolean parameter or def.
func getBool(req mcp.CallToolRequest, name string, def bool) bool { //nolint:unparam
	if v, ok := args(req)[name].(bool); ok {
		return v
	}
	return def
}

// getInt returns the named number parameter truncated to int, or def.
// JSON numbers arrive as float64.
func getInt(req mcp.CallToolRequest, name string, def int) int { //nolint:unparam
	if v, ok := args(req)[name].(float64); ok {
		return int(v)
	}
	return def
}

// getStrings returns the string elements of the named array parameter.
// Non-string elements are skipped; nil means the parameter was absent.
func getStrings(req mcp.CallToolRequest, name string) []string {
	arr, ok := args(req)[name].([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// getMap returns the named object parameter, or nil.
func getMap(req mcp.CallToolRequest, name string) map[string]any {
	m, _ := args(req)[name].(map[string]any)
	return m
}

// jsonResult returns v as indented JSON text. Marshalling failures become
// tool errors so every failure reaches the client the same way.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := store.MarshalJSON(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errResult converts err to a tool error result.
func errResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
