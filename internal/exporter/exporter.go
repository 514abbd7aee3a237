// Package exporter writes records to a directory tree as markdown files
// with YAML frontmatter, the same layout the git backend commits and the
// importer reads.
package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/jpl-au/docstore/internal/gitstore"
	"github.com/jpl-au/docstore/internal/path"
	"github.com/jpl-au/docstore/internal/progress"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// pageSize is the number of records listed per page.
const pageSize = 500

// Options configures an export operation.
type Options struct {
	Prefix string    // Only records under this id prefix
	Ext    string    // File extension: .md (default) or .mdx
	Force  bool      // Overwrite existing files
	Status io.Writer // Progress output; nil disables it
}

// Result contains the outcome of an export operation.
type Result struct {
	Exported int      `json:"exported"`
	Paths    []string `json:"paths"`
}

// Run exports every live record under opts.Prefix into dst, paging
// through the store so memory stays bounded.
func Run(ctx context.Context, w io.Writer, svc service.Service, dst string, opts Options) (Result, error) {
	result := Result{Paths: []string{}}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return result, fmt.Errorf("creating destination directory: %w", err)
	}

	var prog *progress.Progress
	for offset := 0; ; offset += pageSize {
		page, err := svc.List(ctx, store.Filter{
			Prefix: opts.Prefix,
			SortBy: "id",
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return result, err
		}
		if prog == nil && opts.Status != nil {
			prog = progress.New(opts.Status, "Exporting", page.Total)
			defer prog.Done()
		}

		for i := range page.Documents {
			out, err := write(dst, &page.Documents[i], opts)
			if err != nil {
				return result, err
			}
			result.Exported++
			result.Paths = append(result.Paths, out)
			fmt.Fprintf(w, "Exported: %s -> %s\n", page.Documents[i].ID, out)
			if prog != nil {
				prog.Increment()
				prog.Print()
			}
		}
		if !page.HasMore {
			break
		}
	}

	if result.Exported == 0 && opts.Prefix != "" {
		return result, fmt.Errorf("no records found with prefix: %s", opts.Prefix)
	}
	return result, nil
}

// write encodes d and replaces its file atomically. Ids are normalised
// before they are stored, so the joined path cannot leave dst.
func write(dst string, d *store.Document, opts Options) (string, error) {
	out := filepath.Join(dst, filepath.FromSlash(path.File(d.ID, opts.Ext)))
	if rel, err := filepath.Rel(dst, out); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("record %s escapes destination", d.ID)
	}

	if !opts.Force {
		if _, err := os.Stat(out); err == nil {
			return "", fmt.Errorf("file exists: %s (use --force to overwrite)", out)
		}
	}

	b, err := gitstore.Encode(*d)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", d.ID, err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("creating directory: %w", err)
	}
	if err := atomic.WriteFile(out, bytes.NewReader(b)); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}
