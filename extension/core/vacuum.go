// vacuum.go implements the "docstore vacuum" command for permanent
// deletion of soft-deleted records.
//
// Vacuum is destructive, so it asks for confirmation unless --force is set
// or output is JSON.

package core

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/duration"
	"github.com/jpl-au/docstore/internal/vacuum"
)

func (e *Extension) newVacuumCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "vacuum",
		Short: "Permanently delete soft-deleted records",
		Long: `Permanently delete soft-deleted records.

Relational rows are removed, git files are removed in one commit, and the
analytical table is compacted to each record's winning row.

This is irreversible. Use --force to skip confirmation.

Duration formats: 30s, 5m, 7d (days), 4w (weeks)`,
		Args: cobra.NoArgs,
		RunE: e.runVacuum,
	}
	c.Flags().String(extension.FlagOlderThan, "", "Only purge deletions older than duration (e.g., 7d, 4w)")
	return c
}

func (e *Extension) runVacuum(c *cobra.Command, _ []string) error {
	var opts vacuum.Options
	olderThan, _ := c.Flags().GetString(extension.FlagOlderThan)
	if olderThan != "" {
		d, err := duration.Parse(olderThan)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("parse duration %q: %w", olderThan, err))
		}
		opts.OlderThan = &d
	}

	if !cmd.Force() && !cmd.JSON() {
		if !cmd.Confirm("Permanently delete soft-deleted records? This cannot be undone.") {
			fmt.Fprintln(cmd.Out(), "Cancelled")
			return nil
		}
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = cmd.ErrOut()
	} else {
		opts.Status = cmd.ErrOut()
	}
	// the service writes the audit entry
	result, err := vacuum.Run(c.Context(), w, e.svc, opts)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("vacuum: %w", err))
	}
	return cmd.PrintJSON(result)
}
