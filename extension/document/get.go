// get.go implements the "docstore get" command for reading one record.
//
// Terminal output renders markdown with glamour; pipes and redirects get
// the raw content. The -l flag takes a colon range (10:20) as sed does.

package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/get"
)

func (e *Extension) newGetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"cat"},
		Short:   "Read a record",
		Long: `Print the content of the live record at <id>.

With --raw, soft-deleted records are returned too. JSON output includes
type, data, context, version and timestamps.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runGet,
	}
	c.Flags().Bool(extension.FlagRaw, false, "Include soft-deleted records and skip rendering")
	c.Flags().BoolP(extension.FlagNumber, "n", false, "Number output lines")
	c.Flags().StringP(extension.FlagLines, "l", "", "Line range (e.g., 10:20, 5:, :15)")
	return c
}

func (e *Extension) runGet(c *cobra.Command, args []string) error {
	ctx := c.Context()
	id := args[0]

	var opts get.Options
	opts.Raw, _ = c.Flags().GetBool(extension.FlagRaw)
	opts.LineNumbers, _ = c.Flags().GetBool(extension.FlagNumber)
	if lr, _ := c.Flags().GetString(extension.FlagLines); lr != "" {
		start, end, err := parseLineRange(lr)
		if err != nil {
			return cmd.PrintJSONError(err)
		}
		opts.StartLine, opts.EndLine = start, end
	}

	if cmd.JSON() {
		result, err := get.Run(ctx, io.Discard, e.svc, id, opts)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("get %q: %w", id, err))
		}
		return cmd.PrintJSON(result.Document.ToJSON(false))
	}

	if f, ok := cmd.Out().(*os.File); ok && !opts.Raw && term.IsTerminal(int(f.Fd())) {
		var buf bytes.Buffer
		if _, err := get.Run(ctx, &buf, e.svc, id, opts); err != nil {
			return fmt.Errorf("get %q: %w", id, err)
		}
		if rendered, err := glamour.Render(buf.String(), "dark"); err == nil {
			fmt.Fprint(cmd.Out(), rendered)
			return nil
		}
		fmt.Fprint(cmd.Out(), buf.String())
		return nil
	}

	if _, err := get.Run(ctx, cmd.Out(), e.svc, id, opts); err != nil {
		return fmt.Errorf("get %q: %w", id, err)
	}
	return nil
}

// parseLineRange parses "10:20", "5:" or ":15" into 1-indexed bounds,
// where 0 means unbounded.
func parseLineRange(s string) (start, end int, err error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid line range %q: expected format START:END", s)
	}
	if from != "" {
		if _, err := fmt.Sscanf(from, "%d", &start); err != nil || start < 1 {
			return 0, 0, fmt.Errorf("invalid start line %q", from)
		}
	}
	if to != "" {
		if _, err := fmt.Sscanf(to, "%d", &end); err != nil || end < 1 {
			return 0, 0, fmt.Errorf("invalid end line %q", to)
		}
	}
	if start > 0 && end > 0 && start > end {
		return 0, 0, fmt.Errorf("start line %d is greater than end line %d", start, end)
	}
	return start, end, nil
}
