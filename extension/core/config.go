// config.go implements the "docstore config" command for configuration
// management.
//
// Config follows a cascade model similar to git: the project config
// (.docstore/config.yaml) takes precedence over the global one
// (~/.docstore/config.yaml). Writes go to the file reads came from unless
// --local or --global picks one.

package core

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/cmd"
	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/log"
	"github.com/jpl-au/docstore/internal/repo"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config [key] [value]",
		Short: "View or set config values",
		Long: `View or set config values.

  docstore config                      # show config
  docstore config backend.git.branch   # show one value
  docstore config author.name alice    # set a value

Configuration locations:
  Global: ~/.docstore/config.yaml
  Local:  .docstore/config.yaml (created by init)

Uses the project config if a project is found, otherwise global.
Use --local or --global to choose explicitly.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConfig,
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}
	c.Flags().Bool(extension.FlagLocal, false, "Use the project config (.docstore/config.yaml)")
	c.Flags().Bool(extension.FlagGlobal, false, "Use the global config (~/.docstore/config.yaml)")
	c.MarkFlagsMutuallyExclusive(extension.FlagLocal, extension.FlagGlobal)
	return c
}

// loadConfig picks the config file for the scope flags. The environment
// override is not applied so a save never persists it.
func loadConfig(local, global bool) (*config.Config, string, error) {
	if global {
		cfg, err := config.LoadScope(config.ScopeGlobal)
		return cfg, "global", err
	}
	root, err := cmd.ProjectRoot()
	switch {
	case err == nil:
		cfg, err := config.LoadFile(repo.ConfigPath(root))
		return cfg, "local", err
	case local || !errors.Is(err, repo.ErrNotInitialised):
		return nil, "", err
	}
	cfg, err := config.LoadScope(config.ScopeGlobal)
	return cfg, "global", err
}

func runConfig(c *cobra.Command, args []string) error {
	local, _ := c.Flags().GetBool(extension.FlagLocal)
	global, _ := c.Flags().GetBool(extension.FlagGlobal)

	cfg, scope, err := loadConfig(local, global)
	if err != nil {
		return cmd.PrintJSONError(fmt.Errorf("config load: %w", err))
	}

	switch len(args) {
	case 0:
		log.Event("core:config", "list").Actor(cmd.Actor()).Detail("scope", scope).Write(nil)
		if cmd.JSON() {
			return cmd.PrintJSON(cfg.All())
		}
		for _, k := range config.ValidKeys() {
			v, _ := cfg.Get(k)
			fmt.Fprintf(cmd.Out(), "%s: %s\n", k, v)
		}

	case 1:
		v, err := cfg.Get(args[0])
		log.Event("core:config", "get").Actor(cmd.Actor()).Detail("key", args[0]).Write(err)
		if err != nil {
			return cmd.PrintJSONError(fmt.Errorf("config get %q: %w", args[0], err))
		}
		if cmd.JSON() {
			return cmd.PrintJSON(map[string]string{args[0]: v})
		}
		fmt.Fprintln(cmd.Out(), v)

	case 2:
		if err := cfg.Set(args[0], args[1]); err != nil {
			log.Event("core:config", "set").Actor(cmd.Actor()).Detail("key", args[0]).Write(err)
			return cmd.PrintJSONError(fmt.Errorf("config set %q: %w", args[0], err))
		}

		saveErr := cfg.Save()
		// value not logged: config may carry credentials
		log.Event("core:config", "set").Actor(cmd.Actor()).Detail("key", args[0]).Detail("scope", scope).Write(saveErr)
		if saveErr != nil {
			return cmd.PrintJSONError(fmt.Errorf("config save: %w", saveErr))
		}
		if cmd.JSON() {
			return cmd.PrintJSON(map[string]string{"key": args[0], "value": args[1], "scope": scope})
		}
		fmt.Fprintf(cmd.Out(), "%s = %s (%s)\n", args[0], args[1], scope)
	}
	return nil
}
