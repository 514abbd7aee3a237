// put.go implements the "docstore put" command for creating and updating
// records.
//
// Content comes from, in priority order: the second argument, --file, or
// stdin. --data takes a JSON (or JSONC) object for the record payload.

package document

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/put"
	"github.com/jpl-au/docstore/internal/store"
)

func (e *Extension) newPutCmd() *cobra.Command {
	c := &cobra.Command{
		Use:     "put <id> [content]",
		Aliases: []string{"write"},
		Short:   "Create or update a record",
		Long: `Create or replace the record at <id>.

Content comes from the argument, --file, or stdin. Preconditions make the
write conditional:

  --create-only   fail if a live record exists
  --update-only   fail if no live record exists
  --version V     fail unless the live version is V

A failed precondition exits with a conflict error; re-read and retry.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: e.runPut,
	}
	c.Flags().StringP(extension.FlagFile, "f", "", "Read content from file (- for stdin)")
	c.Flags().StringP(extension.FlagType, "t", "", "Record type")
	c.Flags().String(extension.FlagData, "", "JSON object payload")
	c.Flags().String(extension.FlagContext, "", "Linked-data context (string or JSON)")
	c.Flags().Bool(extension.FlagCreateOnly, false, "Fail if the record exists")
	c.Flags().Bool(extension.FlagUpdateOnly, false, "Fail if the record is missing")
	c.Flags().String(extension.FlagVersion, "", "Expected current version")
	c.MarkFlagsMutuallyExclusive(extension.FlagCreateOnly, extension.FlagUpdateOnly)
	return c
}

func (e *Extension) runPut(c *cobra.Command, args []string) error {
	ctx := c.Context()
	id := args[0]

	doc, err := readDocument(c, args)
	if err != nil {
		return cmd.PrintJSONError(err)
	}

	opts := put.Options{Document: doc}
	opts.Set.CreateOnly, _ = c.Flags().GetBool(extension.FlagCreateOnly)
	opts.Set.UpdateOnly, _ = c.Flags().GetBool(extension.FlagUpdateOnly)
	opts.Set.Version, _ = c.Flags().GetString(extension.FlagVersion)

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	}
	res, err := put.Run(ctx, w, e.svc, id, opts)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("put %q: %w", id, err))
	}
	return cmd.PrintJSON(res)
}

func readDocument(c *cobra.Command, args []string) (store.Document, error) {
	var doc store.Document
	doc.Type, _ = c.Flags().GetString(extension.FlagType)

	file, _ := c.Flags().GetString(extension.FlagFile)
	switch {
	case len(args) >= 2:
		doc.Content = args[1]
	default:
		b, err := cmd.ReadInput(file)
		if err != nil {
			return doc, err
		}
		doc.Content = string(b)
	}

	if data, _ := c.Flags().GetString(extension.FlagData); data != "" {
		if err := cmd.DecodeJSONC([]byte(data), &doc.Data); err != nil {
			return doc, fmt.Errorf("parse --%s: %w", extension.FlagData, err)
		}
	}

	if ld, _ := c.Flags().GetString(extension.FlagContext); ld != "" {
		var v any
		if err := cmd.DecodeJSONC([]byte(ld), &v); err != nil {
			v = ld
		}
		doc.Context = v
	}
	return doc, nil
}
