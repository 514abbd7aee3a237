// find.go implements the "docstore search" command.
//
// Terms are matched case-insensitively against content and the --fields
// data paths. Hits are ordered by score; ties fall back to id.

package search

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/find"
	"github.com/jpl-au/docstore/internal/store"
)

func (e *Extension) newSearchCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "search <terms>...",
		Aliases: []string{"find"},
		Short:   "Ranked search across records",
		Long: `Search record content, and optionally data fields, for the given terms.

Every term is matched case-insensitively. Results carry a relevance score
and are filtered by --type, --prefix and --where like ls.`,
		Args: cobra.MinimumNArgs(1),
		RunE: e.runSearch,
	}
	extension.AddFilterFlags(c)
	c.Flags().StringP(extension.FlagPrefix, "p", "", "Scope search to an id prefix")
	c.Flags().StringSlice(extension.FlagFields, nil, "Data paths to search besides content")
	c.Flags().BoolP(extension.FlagIDs, "l", false, "Only output ids")
	return c
}

func (e *Extension) runSearch(c *cobra.Command, args []string) error {
	f, err := extension.ReadFilter(c)
	if err != nil {
		return cmd.PrintJSONError(err)
	}
	f.Prefix, _ = c.Flags().GetString(extension.FlagPrefix)

	q := store.Query{Filter: f, Text: strings.Join(args, " ")}
	q.Fields, _ = c.Flags().GetStringSlice(extension.FlagFields)

	opts := find.Options{Query: q}
	opts.IDsOnly, _ = c.Flags().GetBool(extension.FlagIDs)

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}
	result, err := find.Run(c.Context(), w, e.svc, opts)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("search %q: %w", q.Text, err))
	}
	if !cmd.JSON() && len(result.Page.Documents) == 0 {
		fmt.Fprintln(cmd.ErrOut(), "No matches")
	}
	return cmd.PrintJSON(result.ToJSON())
}
