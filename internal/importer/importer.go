// Package importer loads markdown files (with optional YAML frontmatter)
// from a directory tree into the store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jpl-au/docstore/internal/gitstore"
	"github.com/jpl-au/docstore/internal/path"
	"github.com/jpl-au/docstore/internal/progress"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// batchSize is the number of records written per SetBatch call.
const batchSize = 100

// ErrPartial is returned when some files failed to import.
var ErrPartial = errors.New("some records failed to import")

// DefaultPatterns select the files an import reads.
var DefaultPatterns = []string{"**/*.md", "**/*.mdx"}

// Options configures an import operation.
type Options struct {
	Prefix     string    // Id prefix for imported records
	Patterns   []string  // doublestar patterns; DefaultPatterns when empty
	Hidden     bool      // Include hidden files and directories
	DryRun     bool      // Report what would be imported
	CreateOnly bool      // Leave existing records untouched (reported as failures)
	Status     io.Writer // Progress output; nil disables it
}

// Failure is one file that could not be imported.
type Failure struct {
	File  string `json:"file"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// Result contains the outcome of an import operation.
type Result struct {
	Imported int       `json:"imported"`
	IDs      []string  `json:"ids"`
	Failed   []Failure `json:"failed,omitempty"`
}

type file struct {
	rel string // slash-separated path under the source
	id  string
	ext string
}

// Run imports every matching file under src. A file that fails to decode
// or write is reported in Result.Failed and the import continues; the
// returned error is ErrPartial in that case.
func Run(ctx context.Context, w io.Writer, svc service.Service, src string, opts Options) (Result, error) {
	result := Result{IDs: []string{}}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return result, fmt.Errorf("invalid pattern %q", p)
		}
	}

	root, err := os.OpenRoot(src)
	if err != nil {
		return result, fmt.Errorf("opening source root: %w", err)
	}
	defer root.Close()

	files, err := scan(root.FS(), patterns, opts)
	if err != nil {
		return result, fmt.Errorf("scanning %s: %w", src, err)
	}

	if opts.DryRun {
		for _, f := range files {
			fmt.Fprintf(w, "Would import: %s -> %s\n", f.rel, f.id)
			result.IDs = append(result.IDs, f.id)
		}
		return result, nil
	}

	var prog *progress.Progress
	if opts.Status != nil {
		prog = progress.New(opts.Status, "Importing", len(files))
		defer prog.Done()
	}

	for start := 0; start < len(files); start += batchSize {
		chunk := files[start:min(start+batchSize, len(files))]
		items := make([]store.BatchItem, 0, len(chunk))
		sources := make([]file, 0, len(chunk))
		for _, f := range chunk {
			doc, err := read(root, f.rel)
			if err != nil {
				result.Failed = append(result.Failed, Failure{File: f.rel, ID: f.id, Error: err.Error()})
				continue
			}
			items = append(items, store.BatchItem{
				ID:   f.id,
				Doc:  doc,
				Opts: store.SetOptions{CreateOnly: opts.CreateOnly},
			})
			sources = append(sources, f)
		}

		for i, r := range svc.SetBatch(ctx, items) {
			if r.Err != nil {
				result.Failed = append(result.Failed, Failure{File: sources[i].rel, ID: r.ID, Error: r.Err.Error()})
				continue
			}
			result.Imported++
			result.IDs = append(result.IDs, r.Result.ID)
			fmt.Fprintf(w, "Imported: %s -> %s\n", sources[i].rel, r.Result.ID)
		}
		if prog != nil {
			prog.Set(start + len(chunk))
			prog.Print()
		}
	}

	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%w: %d of %d", ErrPartial, len(result.Failed), len(files))
	}
	return result, nil
}

// scan finds matching files, mapping each to an id. When a directory holds
// both a.mdx and a.md, the higher-precedence extension wins.
func scan(fsys fs.FS, patterns []string, opts Options) ([]file, error) {
	best := make(map[string]file)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if !opts.Hidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !matches(patterns, p) {
			return nil
		}
		rel, ext, ok := path.FromFile(p)
		if !ok {
			return nil
		}
		id, err := path.Normalise(joinPrefix(opts.Prefix, rel))
		if err != nil {
			return nil
		}
		if cur, seen := best[id]; !seen || path.Rank(ext) < path.Rank(cur.ext) {
			best[id] = file{rel: p, id: id, ext: ext}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	files := make([]file, 0, len(best))
	for _, f := range best {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].id < files[j].id })
	return files, nil
}

func matches(patterns []string, p string) bool {
	lp := strings.ToLower(p)
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, lp); ok {
			return true
		}
	}
	return false
}

func joinPrefix(prefix, rel string) string {
	prefix = strings.Trim(filepath.ToSlash(prefix), "/")
	if prefix == "" {
		return rel
	}
	return prefix + "/" + rel
}

// read decodes one file. Soft-delete markers in frontmatter are dropped:
// an imported record is always live.
func read(root *os.Root, rel string) (store.Document, error) {
	b, err := root.ReadFile(rel)
	if err != nil {
		return store.Document{}, err
	}
	doc, err := gitstore.Decode(b)
	if err != nil {
		return store.Document{}, err
	}
	doc.DeletedAt = nil
	return doc, nil
}
