/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// flags.go defines global CLI flags and accessors for shared state.
//
// Extensions read flag values through the exported accessors rather than
// the variables, so they never couple to cobra internals.

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/internal/config"
)

var validOutputFormats = []string{"json"}

var (
	output  string
	actor   string
	dir     string
	ns      string
	verbose bool
	force   bool
)

// out is the output writer for commands. Tests replace it to capture
// output.
var out io.Writer = os.Stdout

// errOut receives diagnostics and progress.
var errOut io.Writer = os.Stderr

// Out returns the output writer.
func Out() io.Writer { return out }

// ErrOut returns the diagnostics writer.
func ErrOut() io.Writer { return errOut }

// Output returns the output format flag value.
func Output() string { return output }

// Actor returns who writes are attributed to.
// Priority: --actor flag > author.name config > "unknown".
func Actor() string { return actor }

// NS returns the analytical namespace flag value.
func NS() string { return ns }

// Force returns the force flag value.
func Force() bool { return force }

// Dir returns the explicit project directory if set.
// Priority: --dir flag > DOCSTORE_DIR env var > empty (use discovery).
func Dir() string {
	if dir != "" {
		return dir
	}
	return os.Getenv(config.EnvDir)
}

// SetOut sets the output writer (for testing).
func SetOut(w io.Writer) { out = w }

// SetErrOut sets the diagnostics writer (for testing).
func SetErrOut(w io.Writer) { errOut = w }

// Logger returns the diagnostics logger: text on stderr, debug with -v.
func Logger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}

// JSON returns true if JSON output is requested.
func JSON() bool { return output == "json" }

// PrintJSON marshals v to JSON and writes it to the output writer.
// Returns nil if output format is not JSON.
func PrintJSON(v any) error {
	if output != "json" {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(out, string(b))
	return nil
}

// PrintJSONError prints an error in JSON format if output is JSON.
// Returns nil if the error was printed (suppressing Cobra's copy), or the
// original error if not.
func PrintJSONError(err error) error {
	if output != "json" || err == nil {
		return err
	}
	_ = PrintJSON(map[string]string{"error": err.Error()})
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format: json")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Attribute writes to this actor")
	rootCmd.PersistentFlags().StringVar(&dir, "dir", "", "Project directory (skip discovery, use explicit path)")
	rootCmd.PersistentFlags().StringVar(&ns, "ns", "", "Analytical namespace")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug diagnostics on stderr")
	rootCmd.PersistentFlags().BoolVar(&force, "force", false, "Skip confirmations")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return validOutputFormats, cobra.ShellCompDirectiveNoFileComp
	})
}
