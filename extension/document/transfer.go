// transfer.go implements "docstore import" and "docstore export", which
// move records between the store and a directory of markdown files with
// YAML frontmatter.

package document

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/exporter"
	"github.com/jpl-au/docstore/internal/importer"
)

func (e *Extension) newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import markdown files as records",
		Long: `Recursively import .md and .mdx files from <dir>.

Each file's path (without extension) becomes its id. Frontmatter keys
type, context, createdAt and updatedAt set those fields; every other key
goes into the record's data. When both name.md and name.mdx exist,
name.mdx wins.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runImport,
	}
	c.Flags().String(extension.FlagPrefix, "", "Id prefix for imported records")
	c.Flags().Bool(extension.FlagHidden, false, "Include hidden files and directories")
	c.Flags().BoolP(extension.FlagDryRun, "n", false, "Show what would be imported")
	c.Flags().Bool(extension.FlagCreateOnly, false, "Skip ids that already exist")
	return c
}

func (e *Extension) runImport(c *cobra.Command, args []string) error {
	src := args[0]
	var opts importer.Options
	opts.Prefix, _ = c.Flags().GetString(extension.FlagPrefix)
	opts.Hidden, _ = c.Flags().GetBool(extension.FlagHidden)
	opts.DryRun, _ = c.Flags().GetBool(extension.FlagDryRun)
	opts.CreateOnly, _ = c.Flags().GetBool(extension.FlagCreateOnly)

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	} else {
		opts.Status = cmd.ErrOut()
	}

	result, err := importer.Run(c.Context(), w, e.svc, src, opts)
	if err != nil && !errors.Is(err, importer.ErrPartial) {
		return cmd.PrintJSONError(fmt.Errorf("import %q: %w", src, err))
	}
	if cmd.JSON() {
		if perr := cmd.PrintJSON(result); perr != nil {
			return perr
		}
		return err
	}

	for _, f := range result.Failed {
		fmt.Fprintf(cmd.ErrOut(), "Failed: %s: %s\n", f.File, f.Error)
	}
	switch {
	case len(result.IDs) == 0 && len(result.Failed) == 0:
		fmt.Fprintf(cmd.Out(), "No markdown files found in %q\n", src)
	case !opts.DryRun:
		fmt.Fprintf(cmd.Out(), "Imported %d record(s)\n", result.Imported)
	}
	return err
}

func (e *Extension) newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export <dir>",
		Short: "Export records as markdown files",
		Long: `Write live records to <dir> as markdown with YAML frontmatter.

Existing files are refused unless --force is set.`,
		Args: cobra.ExactArgs(1),
		RunE: e.runExport,
	}
	c.Flags().String(extension.FlagPrefix, "", "Only records under this id prefix")
	c.Flags().String(extension.FlagExt, ".md", "File extension: .md or .mdx")
	_ = c.RegisterFlagCompletionFunc(extension.FlagExt, func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{".md", ".mdx"}, cobra.ShellCompDirectiveNoFileComp
	})
	return c
}

func (e *Extension) runExport(c *cobra.Command, args []string) error {
	dst := args[0]
	opts := exporter.Options{Force: cmd.Force()}
	opts.Prefix, _ = c.Flags().GetString(extension.FlagPrefix)
	opts.Ext, _ = c.Flags().GetString(extension.FlagExt)
	if opts.Ext != ".md" && opts.Ext != ".mdx" {
		return cmd.PrintJSONError(fmt.Errorf("invalid --%s %q: must be .md or .mdx", extension.FlagExt, opts.Ext))
	}

	w := cmd.Out()
	if cmd.JSON() {
		w = io.Discard
	} else {
		opts.Status = cmd.ErrOut()
	}
	result, err := exporter.Run(c.Context(), w, e.svc, dst, opts)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("export to %q: %w", dst, err))
	}
	if !cmd.JSON() {
		fmt.Fprintf(cmd.Out(), "Exported %d record(s)\n", result.Exported)
	}
	return cmd.PrintJSON(result)
}
