// Package path provides document id normalisation and the mapping between
// ids and the files that hold them in a git working tree.
//
// Every id passes through this package before it reaches a backend, so all
// three backends agree on what a key looks like.
//
// Normalisation rules:
//   - Ids use forward slashes
//   - No leading or trailing slashes
//   - No "." or ".." segments
//   - Empty ids are rejected
//   - Recognised extensions (.mdx, .md) are stripped case-insensitively
package path

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrInvalid indicates the provided document id is invalid.
var ErrInvalid = errors.New("invalid document id")

// ErrTooLong indicates the document id exceeds the configured maximum length.
var ErrTooLong = errors.New("document id too long")

// Recognised file extensions in precedence order. When a working tree holds
// both "a.mdx" and "a.md", the .mdx file is the record.
const (
	ExtMDX = ".mdx"
	ExtMD  = ".md"
)

// Extensions returns the recognised extensions, highest precedence first.
func Extensions() []string {
	return []string{ExtMDX, ExtMD}
}

// Normalise cleans and validates a document id.
func Normalise(p string) (string, error) {
	if p == "" {
		return "", ErrInvalid
	}

	p = toSlash(p)
	p = filepath.ToSlash(filepath.Clean(p))

	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")

	p = StripExt(p)

	if p == "" || p == "." {
		return "", ErrInvalid
	}
	for seg := range strings.SplitSeq(p, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return "", ErrInvalid
		}
	}

	return p, nil
}

// StripExt removes a trailing recognised extension, ignoring case.
// "a.md" -> "a", "a.MDX" -> "a", "a.txt" -> "a.txt".
func StripExt(p string) string {
	for _, ext := range Extensions() {
		if len(p) > len(ext) && strings.EqualFold(p[len(p)-len(ext):], ext) {
			return p[:len(p)-len(ext)]
		}
	}
	return p
}

// File returns the working-tree file name for id using ext. An empty or
// unrecognised ext falls back to .md.
func File(id, ext string) string {
	switch strings.ToLower(ext) {
	case ExtMDX:
		return id + ExtMDX
	default:
		return id + ExtMD
	}
}

// FromFile maps a working-tree file name back to its id and extension.
// ok is false for files that do not carry a recognised extension.
func FromFile(name string) (id, ext string, ok bool) {
	name = toSlash(name)
	for _, e := range Extensions() {
		if len(name) > len(e) && strings.EqualFold(name[len(name)-len(e):], e) {
			return name[:len(name)-len(e)], e, true
		}
	}
	return "", "", false
}

// Rank orders extensions by precedence; lower wins. Unknown extensions
// rank last.
func Rank(ext string) int {
	for i, e := range Extensions() {
		if strings.EqualFold(e, ext) {
			return i
		}
	}
	return len(Extensions())
}

// NormalisePrefix cleans an id prefix the way Normalise cleans an id,
// without rejecting it: slashes are unified, leading "/" and "./" are
// dropped and a recognised extension is stripped. A trailing slash is kept,
// so "posts/" still excludes "posts-old".
func NormalisePrefix(p string) string {
	p = toSlash(p)
	for {
		switch {
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		default:
			return StripExt(p)
		}
	}
}

// HasPrefix reports whether id falls under prefix. An empty prefix matches
// everything. The match is on raw characters, so prefix "post" matches
// "posts/a".
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, toSlash(prefix))
}
