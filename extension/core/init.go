// init.go implements the "docstore init" command for project
// initialisation.
//
// Init is special because it runs before a store exists. It creates the
// .docstore directory, records the chosen backend in the local config and
// creates the backend's files.

package core

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/log"
	"github.com/jpl-au/docstore/internal/store"
)

func newInitCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "init",
		Short: "Initialise a new docstore project",
		Long: `Creates .docstore/ in the current directory with a local config naming the
backend, then creates the backend's files.

  docstore init                       # relational (SQLite) backend
  docstore init --backend git         # records as files in a git working tree
  docstore init --backend analytical  # append-only table with publish queue

Use --dir to create the project elsewhere and --force to reinitialise.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	c.Flags().String(extension.FlagBackend, "", "Backend: relational, git or analytical")
	_ = c.RegisterFlagCompletionFunc(extension.FlagBackend, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var kinds []string
		for _, k := range store.Kinds() {
			kinds = append(kinds, string(k))
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	})
	return c
}

func runInit(c *cobra.Command, _ []string) error {
	backend, _ := c.Flags().GetString(extension.FlagBackend)
	kind := store.Kind(backend)
	if kind != "" && !kind.Valid() {
		return cmd.PrintJSONError(fmt.Errorf("unknown backend %q (valid: %v)", backend, store.Kinds()))
	}

	dir := cmd.Dir()
	root, err := document.Init(c.Context(), dir, kind, cmd.Force())

	log.Event("core:init", "init").
		Actor(cmd.Actor()).
		Detail("backend", backend).
		Detail("dir", root).
		Write(err)

	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("init: %w", err))
	}

	cfg, err := config.LoadProject(root)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	if cmd.JSON() {
		return cmd.PrintJSON(map[string]string{"root": root, "backend": string(cfg.Kind())})
	}
	fmt.Fprintf(cmd.Out(), "Initialised docstore project (%s) in %s\n", cfg.Kind(), root)
	return nil
}
