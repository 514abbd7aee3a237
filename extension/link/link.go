// Package link manages typed edges between records on the analytical
// backend.
// Registers commands: link, unlink, links.
package link

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/format"
	"github.com/jpl-au/docstore/internal/service"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the link extension.
type Extension struct {
	svc service.Service
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "link".
func (e *Extension) Name() string { return "link" }

// Init connects to the shared service.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	return nil
}

// Commands returns link, unlink and links.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		e.newLinkCmd(),
		e.newUnlinkCmd(),
		e.newLinksCmd(),
	}
}

// MCPTools returns docstore_relate and docstore_unrelate. Listing is built
// into the MCP server as docstore_relations.
func (e *Extension) MCPTools() []extension.MCPTool {
	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("docstore_relate",
				mcp.WithDescription("Record a typed edge between two records (analytical backend)"),
				mcp.WithString("from", mcp.Required(), mcp.Description("Source record id")),
				mcp.WithString("type", mcp.Required(), mcp.Description("Edge type")),
				mcp.WithString("to", mcp.Required(), mcp.Description("Target record id")),
				mcp.WithObject("data", mcp.Description("Edge payload")),
			),
			Handler: relateTool,
		},
		{
			Tool: mcp.NewTool("docstore_unrelate",
				mcp.WithDescription("Remove a typed edge (analytical backend)"),
				mcp.WithString("from", mcp.Required(), mcp.Description("Source record id")),
				mcp.WithString("type", mcp.Required(), mcp.Description("Edge type")),
				mcp.WithString("to", mcp.Required(), mcp.Description("Target record id")),
			),
			Handler: unrelateTool,
		},
	}
}

type edgeResult struct {
	From string `json:"from"`
	Type string `json:"type"`
	To   string `json:"to"`
}

func (e *Extension) newLinkCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "link <from> <type> <to>",
		Short: "Relate two records",
		Long: `Record a typed edge from one record to another.

Relating the same (from, type, to) again replaces the edge's data.

  docstore link posts/hello cites posts/intro
  docstore link a depends-on b --data '{"weight": 2}'`,
		Args: cobra.ExactArgs(3),
		RunE: e.runLink,
	}
	c.Flags().String(extension.FlagData, "", "JSON object payload")
	return c
}

func (e *Extension) runLink(c *cobra.Command, args []string) error {
	r := analytical.Relation{From: args[0], Type: args[1], To: args[2]}
	if data, _ := c.Flags().GetString(extension.FlagData); data != "" {
		if err := cmd.DecodeJSONC([]byte(data), &r.Data); err != nil {
			return cmd.PrintJSONError(fmt.Errorf("parse --%s: %w", extension.FlagData, err))
		}
	}
	if err := e.svc.Relate(c.Context(), r); err != nil {
		return cmd.PrintJSONError(fmt.Errorf("link: %w", err))
	}
	if !cmd.JSON() {
		fmt.Fprintf(cmd.Out(), "Linked %s -%s-> %s\n", r.From, r.Type, r.To)
	}
	return cmd.PrintJSON(edgeResult{From: r.From, Type: r.Type, To: r.To})
}

func (e *Extension) newUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <from> <type> <to>",
		Short: "Remove an edge",
		Args:  cobra.ExactArgs(3),
		RunE:  e.runUnlink,
	}
}

func (e *Extension) runUnlink(c *cobra.Command, args []string) error {
	from, typ, to := args[0], args[1], args[2]
	if err := e.svc.Unrelate(c.Context(), typ, from, to); err != nil {
		return cmd.PrintJSONError(fmt.Errorf("unlink: %w", err))
	}
	if !cmd.JSON() {
		fmt.Fprintf(cmd.Out(), "Unlinked %s -%s-> %s\n", from, typ, to)
	}
	return cmd.PrintJSON(edgeResult{From: from, Type: typ, To: to})
}

func (e *Extension) newLinksCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "links <id>",
		Short: "List a record's edges",
		Long:  `List the edges leaving a record, or arriving at it with --incoming.`,
		Args:  cobra.ExactArgs(1),
		RunE:  e.runLinks,
	}
	c.Flags().String(extension.FlagType, "", "Only edges of this type")
	c.Flags().Bool(extension.FlagIncoming, false, "Edges arriving at the record")
	return c
}

func (e *Extension) runLinks(c *cobra.Command, args []string) error {
	typ, _ := c.Flags().GetString(extension.FlagType)
	incoming, _ := c.Flags().GetBool(extension.FlagIncoming)

	rels, err := e.svc.Relations(c.Context(), args[0], typ, incoming)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("links %q: %w", args[0], err))
	}
	if rels == nil {
		rels = []analytical.Relation{}
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}
	if err := format.Relations(w, rels); err != nil {
		return err
	}
	return cmd.PrintJSON(rels)
}

func relateTool(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r := analytical.Relation{
		From: req.GetString("from", ""),
		Type: req.GetString("type", ""),
		To:   req.GetString("to", ""),
	}
	if m, ok := req.GetArguments()["data"].(map[string]any); ok {
		r.Data = m
	}
	if err := extCtx.Service().Relate(ctx, r); err != nil {
		return mcp.NewToolResultError(err.Error()), nil //nolint:nilerr
	}
	return mcp.NewToolResultText(fmt.Sprintf("Linked %s -%s-> %s", r.From, r.Type, r.To)), nil
}

func unrelateTool(ctx context.Context, extCtx extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, typ, to := req.GetString("from", ""), req.GetString("type", ""), req.GetString("to", "")
	if err := extCtx.Service().Unrelate(ctx, typ, from, to); err != nil {
		return mcp.NewToolResultError(err.Error()), nil //nolint:nilerr
	}
	return mcp.NewToolResultText(fmt.Sprintf("Unlinked %s -%s-> %s", from, typ, to)), nil
}
