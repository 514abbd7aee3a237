// guide.go implements the "docstore guide" command for documentation
// access.
//
// Guides are embedded in the binary via the guide package. Terminal output
// gets glamour rendering; pipes and redirects get raw markdown for LLM
// context loading.

package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/guide"
)

func newGuideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guide [topic]",
		Short: "Show the docstore usage guide",
		Long: `Outputs the docstore guide for LLMs and humans.

  docstore guide            # main guide
  docstore guide backends   # backend details
  docstore guide publish    # the publish queue and processor`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			topics, _ := guide.List()
			return topics, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(_ *cobra.Command, args []string) error {
			topic := ""
			if len(args) > 0 {
				topic = args[0]
			}

			content, err := guide.Get(topic)
			if errors.Is(err, guide.ErrUnknownTopic) {
				available, listErr := guide.List()
				if listErr != nil {
					return listErr
				}
				return cmd.PrintJSONError(fmt.Errorf("guide %q not found. Available: %s", topic, strings.Join(available, ", ")))
			}
			if err != nil {
				return cmd.PrintJSONError(err)
			}

			if cmd.JSON() {
				return cmd.PrintJSON(map[string]string{"topic": topic, "content": content})
			}

			if f, ok := cmd.Out().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				rendered, err := glamour.Render(content, "dark")
				if err == nil {
					fmt.Fprint(cmd.Out(), rendered)
					return nil
				}
			}

			fmt.Fprint(cmd.Out(), content)
			return nil
		},
	}
}
