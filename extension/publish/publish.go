// Package publish provides the staged publish queue commands for the
// analytical backend.
// Registers commands: publish, actions, process.
package publish

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/publish"
	"github.com/jpl-au/docstore/internal/service"
)

func init() {
	extension.Register(&Extension{})
}

// Extension implements the publish extension.
type Extension struct {
	svc service.Service
}

var (
	_ extension.Extension     = (*Extension)(nil)
	_ extension.Initializable = (*Extension)(nil)
)

// Name returns "publish".
func (e *Extension) Name() string { return "publish" }

// Init connects to the shared service.
func (e *Extension) Init(ctx extension.Context) error {
	e.svc = ctx.Service()
	return nil
}

// Commands returns publish, actions and process.
func (e *Extension) Commands() []*cobra.Command {
	return []*cobra.Command{
		e.newPublishCmd(),
		e.newActionsCmd(),
		e.newProcessCmd(),
	}
}

// MCPTools returns docstore_actions, which lists the queue.
func (e *Extension) MCPTools() []extension.MCPTool {
	return []extension.MCPTool{actionsTool()}
}

func (e *Extension) newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish [file.json|-]",
		Short: "Stage documents for the processor",
		Long: `Stage a batch of documents as one pending Action (analytical backend).

The input is a JSON (comments allowed) object:

  {
    "documents": [{"id": "notes/a", "type": "note", "data": {}, "content": "..."}],
    "repo": "example", "branch": "main", "commit": "abc123"
  }

Nothing is visible to reads until "docstore process" materialises it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.runPublish,
	}
}

func (e *Extension) runPublish(c *cobra.Command, args []string) error {
	file := ""
	if len(args) > 0 {
		file = args[0]
	}
	data, err := cmd.ReadInput(file)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	var body analytical.PublishBody
	if err := cmd.DecodeJSONC(data, &body); err != nil {
		return cmd.PrintJSONError(fmt.Errorf("parse publish body: %w", err))
	}
	if body.Actor == "" {
		body.Actor = cmd.Actor()
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}
	a, err := publish.Run(c.Context(), w, e.svc, body)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("publish: %w", err))
	}
	return cmd.PrintJSON(a)
}

func (e *Extension) newActionsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "actions [id]",
		Short: "List staged Actions or show one",
		Long: `List staged Actions oldest first, or show one Action in detail.

--status defaults to pending; "all" lists every status.`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.runActions,
	}
	c.Flags().String(extension.FlagStatus, "", "pending, active, completed, failed or all")
	c.Flags().Int(extension.FlagLimit, 0, "Maximum Actions to list (0 = all)")
	_ = c.RegisterFlagCompletionFunc(extension.FlagStatus, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"pending", "active", "completed", "failed", "all"}, cobra.ShellCompDirectiveNoFileComp
	})
	return c
}

func (e *Extension) runActions(c *cobra.Command, args []string) error {
	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}

	if len(args) == 1 {
		a, err := publish.Show(c.Context(), w, e.svc, args[0])
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("action %q: %w", args[0], err))
		}
		return cmd.PrintJSON(a)
	}

	var f analytical.ActionFilter
	status, _ := c.Flags().GetString(extension.FlagStatus)
	st, err := analytical.ParseStatusFilter(status)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	f.Status = st
	f.NS = e.svc.NS()
	f.Limit, _ = c.Flags().GetInt(extension.FlagLimit)

	actions, err := publish.List(c.Context(), w, e.svc, f)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("actions: %w", err))
	}
	if !cmd.JSON() && len(actions) == 0 {
		fmt.Fprintln(cmd.ErrOut(), "No actions")
	}
	return cmd.PrintJSON(actions)
}
