// Package document provides the document extension for record CRUD.
// Registers commands: get, put, rm, ls, import, export.
//
// Each command file isolates its flag handling and output formatting; the
// record logic lives in the matching internal package.

package document

import (
	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/service"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the document extension.
type Extension struct {
	svc service.Service
	cfg *config.Config
}

// Compile-time interface compliance.
var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "document".
func (e *Extension) Name() string { return "document" }

// Init connects to the shared service.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	e.cfg = ctx.Config()
	return nil
}

// Commands returns the record commands.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		e.newGetCmd(),
		e.newPutCmd(),
		e.newRmCmd(),
		e.newLsCmd(),
		e.newImportCmd(),
		e.newExportCmd(),
	}
}

// MCPTools returns nil. Record tools are built into the MCP server.
func (e *Extension) MCPTools() []extension.MCPTool {
	return nil
}
