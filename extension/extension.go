// Package extension provides the plugin architecture for docstore.
// Extensions bundle related CLI commands and MCP tools and register at init
// time, so features are added without touching core code.
package extension

import (
	"github.com/spf13/cobra"
)

// Extension defines the contract for docstore extensions.
type Extension interface {
	// Name returns a unique identifier for this extension.
	Name() string

	// Commands returns CLI commands to register with the root command.
	Commands() []*cobra.Command

	// MCPTools returns tools the MCP server registers next to its own.
	MCPTools() []MCPTool
}

// Initializable extensions receive the shared Context once the store is
// open.
type Initializable interface {
	Extension
	Init(ctx Context) error
}

// Storeless is an optional interface for extensions with commands that
// don't require an open store. Commands returned by NoStoreCommands() will
// not trigger store initialisation in PersistentPreRunE.
//
// Use cases:
// 1. Bootstrap commands (like init) that run before a project exists
// 2. Commands that manage their own service lifecycle (mcp)
// 3. Utility commands that don't touch records (version, guide)
type Storeless interface {
	NoStoreCommands() []string
}
