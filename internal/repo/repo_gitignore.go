// repo_gitignore.go maintains .docstore/.gitignore.
//
// Existing content and ordering are preserved; entries are only appended
// when missing, so user additions survive a re-init.

package repo

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const gitignoreHeader = "# docstore - local databases and config are not committed"

// parseGitignore reads a gitignore file and returns its lines (trimmed).
// A missing file yields no lines.
func parseGitignore(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines, nil
}

// Ignore appends the missing entries to dir/.gitignore.
func Ignore(dir string, entries ...string) error {
	gitignore := filepath.Join(dir, ".gitignore")
	lines, err := parseGitignore(gitignore)
	if err != nil {
		return err
	}

	var add []string
	for _, e := range entries {
		if !slices.Contains(lines, e) && !slices.Contains(add, e) {
			add = append(add, e)
		}
	}
	if len(add) == 0 {
		return nil
	}

	content, err := os.ReadFile(gitignore)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s := string(content)
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if !slices.Contains(lines, gitignoreHeader) {
		s += gitignoreHeader + "\n"
	}
	s += strings.Join(add, "\n") + "\n"
	return os.WriteFile(gitignore, []byte(s), 0644)
}

// IsIgnored reports whether entry is listed in dir/.gitignore.
func IsIgnored(dir, entry string) (bool, error) {
	lines, err := parseGitignore(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return false, err
	}
	return slices.Contains(lines, entry), nil
}
