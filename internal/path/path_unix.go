//go:build !windows

// path_unix.go provides Unix-specific separator handling.
//
// On Unix systems, backslashes are valid filename characters, not path
// separators, so filepath.ToSlash leaves them alone. Ids arriving over HTTP
// from Windows clients still use them, so they are replaced explicitly.

package path

import "strings"

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
