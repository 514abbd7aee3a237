// Package gitstore is the content-addressed backend: every record is one
// markdown file in a git working tree and its version is the file's blob
// hash at the branch head.
//
// Every mutation is one commit. There is no query language, so List and
// Search materialise the tree listing and run the shared query engine
// client-side.
package gitstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jpl-au/docstore/internal/path"
	"github.com/jpl-au/docstore/internal/store"
)

// ErrBranchMismatch is returned by Open when the working tree has a
// different branch checked out than the one configured.
var ErrBranchMismatch = errors.New("working tree is on a different branch")

// Default settings.
const (
	DefaultBranch  = "main"
	DefaultTimeout = 30 * time.Second
)

// DefaultInclude matches every recognised content file.
var DefaultInclude = []string{"**/*.md", "**/*.mdx"}

// DefaultExclude skips hidden directories.
var DefaultExclude = []string{".*/**", "**/.*/**"}

// Store is the content-addressed backend.
type Store struct {
	git     *Client
	branch  string
	ext     string
	include []string
	exclude []string
	logger  *slog.Logger

	// mu serialises writers within the process; the lock file serialises
	// them across processes.
	mu sync.Mutex
}

var (
	_ store.Adapter   = (*Store)(nil)
	_ store.RawReader = (*Store)(nil)
	_ store.Vacuumer  = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithBranch sets the tracked branch.
func WithBranch(b string) Option {
	return func(s *Store) {
		if b != "" {
			s.branch = b
		}
	}
}

// WithExtension sets the extension used for new records (.md or .mdx).
func WithExtension(ext string) Option {
	return func(s *Store) {
		if ext != "" {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			s.ext = strings.ToLower(ext)
		}
	}
}

// WithTimeout bounds every git invocation.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.git.Timeout = d }
}

// WithLogger sets the logger for git command tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
			s.git.Logger = l
		}
	}
}

// WithCommitter sets the identity recorded on commits.
func WithCommitter(name, email string) Option {
	return func(s *Store) {
		if name != "" {
			s.git.Name = name
		}
		if email != "" {
			s.git.Email = email
		}
	}
}

// WithPatterns overrides the doublestar patterns that select content files.
// Patterns are matched against lower-cased repository paths.
func WithPatterns(include, exclude []string) Option {
	return func(s *Store) {
		if len(include) > 0 {
			s.include = include
		}
		if exclude != nil {
			s.exclude = exclude
		}
	}
}

// Open opens (initialising if needed) the working tree at dir.
func Open(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	s := &Store{
		git:     NewClient(dir, nil, DefaultTimeout),
		branch:  DefaultBranch,
		ext:     path.ExtMD,
		include: DefaultInclude,
		exclude: DefaultExclude,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(s)
	}

	for _, p := range append(append([]string{}, s.include...), s.exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
	}

	if err := s.git.Init(ctx, s.branch); err != nil {
		return nil, fmt.Errorf("init repository %s: %w", dir, err)
	}
	cur, err := s.git.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current branch: %w", err)
	}
	if cur != s.branch {
		return nil, fmt.Errorf("%w: want %s, have %s", ErrBranchMismatch, s.branch, cur)
	}
	return s, nil
}

// Kind identifies the backend.
func (s *Store) Kind() store.Kind { return store.KindGit }

// Close is a no-op; git holds no long-lived resources.
func (s *Store) Close() error { return nil }

// Dir returns the working tree root.
func (s *Store) Dir() string { return s.git.Dir }

func (s *Store) ref() string { return "refs/heads/" + s.branch }

// content reports whether a repository path is a record file.
func (s *Store) content(p string) bool {
	lp := strings.ToLower(p)
	for _, pat := range s.exclude {
		if ok, _ := doublestar.Match(pat, lp); ok {
			return false
		}
	}
	for _, pat := range s.include {
		if ok, _ := doublestar.Match(pat, lp); ok {
			return true
		}
	}
	return false
}

// file is the blob that holds a record at the branch head.
type file struct {
	id   string
	path string
	ext  string
	hash string
}

// tree lists every record file at the branch head, grouped by id. For each
// id the files are ordered by extension precedence, so files[0] is the
// record. ids preserves the tree's path order.
func (s *Store) tree(ctx context.Context) (ids []string, files map[string][]file, err error) {
	files = map[string][]file{}
	ok, err := s.git.HasCommits(ctx, s.ref())
	if err != nil || !ok {
		return nil, files, err
	}

	entries, err := s.git.LsTree(ctx, s.ref(), true)
	if err != nil {
		return nil, nil, fmt.Errorf("list tree: %w", err)
	}
	ids, files = s.group(entries)
	return ids, files, nil
}

// resolve returns the files holding id, highest precedence first. Only the
// id's parent directory is listed, so extensions match case-insensitively
// without walking the whole tree.
func (s *Store) resolve(ctx context.Context, id string) ([]file, error) {
	ok, err := s.git.HasCommits(ctx, s.ref())
	if err != nil || !ok {
		return nil, err
	}

	var dirs []string
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		dirs = []string{id[:i+1]}
	}
	entries, err := s.git.LsTree(ctx, s.ref(), false, dirs...)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}
	_, files := s.group(entries)
	return files[id], nil
}

func (s *Store) group(entries []Entry) (ids []string, files map[string][]file) {
	files = map[string][]file{}
	for _, e := range entries {
		if !s.content(e.Path) {
			continue
		}
		id, ext, ok := path.FromFile(e.Path)
		if !ok {
			continue
		}
		if _, seen := files[id]; !seen {
			ids = append(ids, id)
		}
		files[id] = append(files[id], file{id: id, path: e.Path, ext: ext, hash: e.Hash})
	}
	for _, fs := range files {
		slices.SortStableFunc(fs, func(a, b file) int {
			return cmp.Compare(path.Rank(a.ext), path.Rank(b.ext))
		})
	}
	return ids, files
}

// paths returns the repository paths of fs.
func paths(fs []file) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.path)
	}
	return out
}
