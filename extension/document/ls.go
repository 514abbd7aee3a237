// ls.go implements the "docstore ls" command for listing records.
//
// -l shows version, type, size and update time; -t draws the id hierarchy.

package document

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/ls"
	"github.com/jpl-au/docstore/internal/store"
)

func (e *Extension) newLsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List records",
		Long: `List live records, optionally under an id prefix.

Filter by type (--type) and data equality (--where author=ann), order by
id or a data path (--sort data.rank), and page with --limit and --offset.`,
		Args: cobra.MaximumNArgs(1),
		RunE: e.runLs,
	}
	extension.AddFilterFlags(c)
	c.Flags().StringP(extension.FlagSort, "s", "id", "Sort by id or a data path")
	c.Flags().Bool(extension.FlagDesc, false, "Sort descending")
	c.Flags().BoolP(extension.FlagLong, "l", false, "Long format with metadata")
	c.Flags().BoolP(extension.FlagTree, "t", false, "Display as tree")
	c.MarkFlagsMutuallyExclusive(extension.FlagLong, extension.FlagTree)
	return c
}

func (e *Extension) runLs(c *cobra.Command, args []string) error {
	f, err := extension.ReadFilter(c)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	if len(args) > 0 {
		f.Prefix = args[0]
	}
	f.SortBy, _ = c.Flags().GetString(extension.FlagSort)
	if desc, _ := c.Flags().GetBool(extension.FlagDesc); desc {
		f.SortOrder = store.Desc
	}

	opts := ls.Options{Filter: f}
	if long, _ := c.Flags().GetBool(extension.FlagLong); long {
		opts.Layout = ls.LayoutLong
	}
	if tree, _ := c.Flags().GetBool(extension.FlagTree); tree {
		opts.Layout = ls.LayoutTree
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}
	result, err := ls.Run(c.Context(), w, e.svc, opts)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("ls %q: %w", f.Prefix, err))
	}
	return cmd.PrintJSON(result.ToJSON())
}
