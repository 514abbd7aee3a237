//go:build windows

// path_windows.go provides Windows-specific separator handling.

package path

import "path/filepath"

func toSlash(p string) string {
	return filepath.ToSlash(p)
}
