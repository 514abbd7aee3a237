/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// init_extensions.go handles extension initialisation and command
// registration.
//
// Extensions register during init() but aren't initialised until the first
// command that needs the store runs. The service is created once and shared
// across all extensions via the Context.

package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/log"
	"github.com/jpl-au/docstore/internal/repo"
)

// noStoreCommands lists commands that bypass automatic store
// initialisation: the bootstrap commands plus extension-declared ones.
var noStoreCommands map[string]bool

func buildNoStoreCommands() map[string]bool {
	cmds := map[string]bool{
		"help":       true,
		"completion": true,
	}
	for _, ext := range extension.All() {
		if s, ok := ext.(extension.Storeless); ok {
			for _, name := range s.NoStoreCommands() {
				cmds[name] = true
			}
		}
	}
	return cmds
}

var (
	extContext extension.Context
	extService *document.Service
	initOnce   sync.Once
	initErr    error
)

// ProjectRoot resolves the project: --dir or DOCSTORE_DIR if set,
// otherwise discovery from the working directory.
func ProjectRoot() (string, error) {
	if d := Dir(); d != "" {
		return repo.Explicit(d)
	}
	return repo.Discover()
}

// Options returns the service options the global flags select for a
// surface ("cli", "http", "mcp").
func Options(source string) document.Options {
	return document.Options{
		Actor:  Actor(),
		Source: source,
		NS:     NS(),
		Logger: Logger(),
	}
}

// initExtensions opens the document service and injects it into
// extensions. A missing project surfaces as repo.ErrNotInitialised so the
// command fails with a clear message.
func initExtensions(ctx context.Context) error {
	initOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		root, err := ProjectRoot()
		if err != nil {
			initErr = err
			return
		}
		svc, err := document.OpenRoot(ctx, root, Options("cli"))
		if err != nil {
			initErr = fmt.Errorf("opening store: %w", err)
			return
		}
		extService = svc

		log.SetProject(root)

		extContext = extension.NewContext(svc, svc.Config(), Logger())
		for _, ext := range extension.All() {
			if init, ok := ext.(extension.Initializable); ok {
				if err := init.Init(extContext); err != nil {
					initErr = fmt.Errorf("init extension %s: %w", ext.Name(), err)
					return
				}
			}
		}
	})
	return initErr
}

func closeService() {
	if extService == nil {
		return
	}
	if err := extService.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", err)
	}
}

var extensionsOnce sync.Once

// registerExtensions adds commands from all registered extensions.
func registerExtensions() {
	extensionsOnce.Do(func() {
		for _, ext := range extension.All() {
			for _, c := range ext.Commands() {
				rootCmd.AddCommand(c)
			}
		}
		noStoreCommands = buildNoStoreCommands()
	})
}
