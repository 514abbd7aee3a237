// rm.go implements the "docstore rm" command.
//
// rm removes records outright by default; --soft marks them deleted so raw
// reads still see them until vacuum. -r treats each argument as a prefix.

package document

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/rm"
)

func (e *Extension) newRmCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete records",
		Long: `Delete one or more records. Deleting an absent id is not an error.

--soft keeps the record readable with "get --raw" until "vacuum" runs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: e.runRm,
	}
	c.Flags().Bool(extension.FlagSoft, false, "Soft delete (recoverable until vacuum)")
	c.Flags().BoolP(extension.FlagRecursive, "r", false, "Delete every record under each prefix")
	return c
}

func (e *Extension) runRm(c *cobra.Command, args []string) error {
	var opts rm.Options
	opts.Soft, _ = c.Flags().GetBool(extension.FlagSoft)
	opts.Recursive, _ = c.Flags().GetBool(extension.FlagRecursive)

	if opts.Recursive && !opts.Soft && !cmd.Force() && !cmd.JSON() {
		if !cmd.Confirm(fmt.Sprintf("Permanently delete every record under %v?", args)) {
			fmt.Fprintln(cmd.Out(), "Cancelled")
			return nil
		}
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}
	result, err := rm.Run(c.Context(), w, e.svc, args, opts)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("rm: %w", err))
	}
	return cmd.PrintJSON(result)
}
