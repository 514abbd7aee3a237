// Package repo provides project initialisation and discovery for docstore.
//
// A docstore project is a directory containing a .docstore directory, which
// holds the local config and the database files of the relational and
// analytical backends. The git backend keeps its records in the project's
// working tree; .docstore itself is never treated as content.
//
// Discovery mirrors git's approach: starting from the current directory,
// walk up until a .docstore directory is found, or the filesystem root is
// reached. DOCSTORE_DIR skips discovery and names the project root.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpl-au/docstore/internal/config"
)

// Dir is the per-project directory name.
const Dir = config.Dir

var (
	// ErrNotInitialised is returned when no docstore project is found.
	ErrNotInitialised = errors.New("docstore not initialised (run 'docstore init')")
	// ErrAlreadyInitialised is returned by Init for an existing project.
	ErrAlreadyInitialised = errors.New("docstore already initialised (use --force to reinitialise)")
)

// ignored lists the .docstore entries kept out of version control: database
// files are machine-local state and the local config may carry credentials.
var ignored = []string{"*.db", "*.db-wal", "*.db-shm", "config.yaml"}

// Init creates the .docstore directory under dir (current directory when
// empty) and returns the absolute project root. Backend files are created
// by the first open, not here.
func Init(dir string, force bool) (string, error) {
	if dir == "" {
		dir = "."
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	ds := filepath.Join(root, Dir)

	if _, err := os.Stat(filepath.Join(ds, "config.yaml")); err == nil && !force {
		return "", ErrAlreadyInitialised
	}
	if err := os.MkdirAll(ds, 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := Ignore(ds, ignored...); err != nil {
		return "", fmt.Errorf("write gitignore: %w", err)
	}
	return root, nil
}

// ConfigPath returns the local config file of the project at root.
func ConfigPath(root string) string {
	return filepath.Join(root, Dir, "config.yaml")
}

// Discover returns the project root. DOCSTORE_DIR takes precedence over
// walking up from the working directory.
func Discover() (string, error) {
	if d := os.Getenv(config.EnvDir); d != "" {
		return Explicit(d)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return DiscoverFrom(wd)
}

// Explicit returns dir as the project root if it holds a .docstore
// directory.
func Explicit(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if !isProject(root) {
		return "", fmt.Errorf("%w: %s", ErrNotInitialised, root)
	}
	return root, nil
}

// DiscoverFrom walks up from start looking for a .docstore directory.
func DiscoverFrom(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	for {
		if isProject(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotInitialised
		}
		dir = parent
	}
}

func isProject(root string) bool {
	info, err := os.Stat(filepath.Join(root, Dir))
	return err == nil && info.IsDir()
}
