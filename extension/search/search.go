// Package search provides ranked record search.
// Registers commands: search.
package search

import (
	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/service"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the search extension.
type Extension struct {
	svc service.Service
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "search".
func (e *Extension) Name() string { return "search" }

// Init connects to the shared service.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	return nil
}

// Commands returns the search command.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{e.newSearchCmd()}
}

// MCPTools returns nil. docstore_search is built into the MCP server.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}
