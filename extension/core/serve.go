// serve.go implements "docstore serve" (HTTP) and "docstore mcp" (MCP
// over stdio).
//
// serve uses the shared service opened by the CLI; mcp is storeless and
// manages its own lifecycle so a client can initialise a project through
// it.

package core

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/httpapi"
	"github.com/jpl-au/docstore/internal/log"
	"github.com/jpl-au/docstore/internal/mcp"
)

func (e *Extension) newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serve the record API over HTTP until interrupted.

  docstore serve                   # listen on server.addr (default :8080)
  docstore serve --addr :9000

Routes: GET/PUT/DELETE /{id}, GET / (list), GET /search, and for the
analytical backend POST /publish, GET /actions[/{id}], POST /process.`,
		Args: cobra.NoArgs,
		RunE: e.runServe,
	}
	c.Flags().String(extension.FlagAddr, "", "Listen address (default from server.addr)")
	return c
}

func (e *Extension) runServe(c *cobra.Command, _ []string) error {
	addr, _ := c.Flags().GetString(extension.FlagAddr)
	if addr == "" {
		addr = e.cfg.ServerAddr()
	}

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := e.extCtx.Logger()
	err := httpapi.ListenAndServe(ctx, addr, httpapi.New(e.svc, logger), logger)

	log.Event("core:serve", "serve").
		Actor(cmd.Actor()).
		Detail("addr", addr).
		Detail("backend", e.svc.Kind()).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("serve: %w", err))
	}
	return nil
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server over stdio",
		Long: `Start an MCP (Model Context Protocol) server over stdio for LLM integration.

The server starts without a project; clients call docstore_init to create
one. Use --dir to serve a project elsewhere.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var tools []extension.MCPTool
			for _, ext := range extension.All() {
				tools = append(tools, ext.MCPTools()...)
			}
			return mcp.Serve(mcp.Config{
				Dir:     cmd.Dir(),
				Options: cmd.Options("mcp"),
				Tools:   tools,
			})
		},
	}
}
