// process.go implements the "docstore process" command, which runs the
// processor once or on an interval until interrupted.

package publish

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/duration"
	"github.com/jpl-au/docstore/internal/publish"
)

func (e *Extension) newProcessCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "process",
		Short: "Materialise pending Actions into records",
		Long: `Claim pending Actions (and those whose lease has lapsed) and write their
documents to the analytical table. Each Action completes or fails on its
own; a failure never stops the rest of the batch.

--every repeats the run on an interval until interrupted (e.g., 30s, 5m).`,
		Args: cobra.NoArgs,
		RunE: e.runProcess,
	}
	c.Flags().Int(extension.FlagLimit, 0, "Maximum Actions to claim per run (0 = config)")
	c.Flags().String(extension.FlagEvery, "", "Repeat interval")
	return c
}

func (e *Extension) runProcess(c *cobra.Command, _ []string) error {
	var opts publish.ProcessOptions
	opts.Run.NS = e.svc.NS()
	opts.Run.Limit, _ = c.Flags().GetInt(extension.FlagLimit)
	if every, _ := c.Flags().GetString(extension.FlagEvery); every != "" {
		d, err := duration.Parse(every)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("parse interval %q: %w", every, err))
		}
		opts.Every = d
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	} else {
		opts.Status = cmd.ErrOut()
	}

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := publish.Process(ctx, w, e.svc, opts)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("process: %w", err))
	}
	return cmd.PrintJSON(rep)
}
