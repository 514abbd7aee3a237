// Package core provides the core extension for docstore.
// It registers commands: init, config, serve, mcp, guide, vacuum, version.
package core

import (
	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/service"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the core extension.
type Extension struct {
	svc    service.Service
	cfg    *config.Config
	extCtx extension.Context
}

// Compile-time interface compliance.
var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
	_ extension.Storeless     = (*Extension)(nil)
)

// Name returns "core".
func (e *Extension) Name() string { return "core" }

// Init receives the open store; serve and vacuum use it.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	e.cfg = ctx.Config()
	e.extCtx = ctx
	return nil
}

// Commands returns all core CLI commands for project management.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		newInitCmd(),
		newConfigCmd(),
		e.newServeCmd(),
		newMCPCmd(),
		newGuideCmd(),
		e.newVacuumCmd(),
		newVersionCmd(),
	}
}

// MCPTools returns nil. The MCP server registers the core tools itself.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}

// NoStoreCommands returns commands that run without an open store.
// init creates it, mcp manages its own lifecycle and the rest never
// touch records.
func (e *Extension) NoStoreCommands() []string {
	return []string{"init", "config", "mcp", "guide", "version"}
}
