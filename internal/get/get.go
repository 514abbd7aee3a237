// Package get reads one record and prints its content, optionally a line
// range with line numbers, so large bodies can be read a section at a
// time.
package get

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/store"
)

// ErrNotFound is returned when no record (live, or stored with Raw) exists.
var ErrNotFound = errors.New("record not found")

// minLineNumWidth is the minimum column width for line numbers.
const minLineNumWidth = 6

// maxLineLength bounds a single scanned line.
const maxLineLength = 10 * 1024 * 1024

// Options configures a get operation.
type Options struct {
	Raw         bool // Return soft-deleted records too
	LineNumbers bool
	StartLine   int // First line to show (1-indexed, 0 = start)
	EndLine     int // Last line to show (1-indexed, 0 = end)
}

// Result contains the record read.
type Result struct {
	Document *store.Document
}

// Run reads the record at id and writes its content to w.
func Run(ctx context.Context, w io.Writer, svc service.Service, id string, opts Options) (Result, error) {
	var result Result

	read := svc.Get
	if opts.Raw {
		read = svc.RawGet
	}
	doc, err := read(ctx, id)
	if err != nil {
		return result, err
	}
	if doc == nil {
		return result, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	result.Document = doc

	if opts.StartLine == 0 && opts.EndLine == 0 && !opts.LineNumbers {
		fmt.Fprint(w, doc.Content)
		return result, nil
	}
	return result, lines(w, doc.Content, opts)
}

func lines(w io.Writer, content string, opts Options) error {
	total := strings.Count(content, "\n") + 1
	trailing := strings.HasSuffix(content, "\n")
	if trailing {
		total--
	}

	start, end := 1, total
	if opts.StartLine > 0 {
		start = opts.StartLine
	}
	if opts.EndLine > 0 && opts.EndLine < end {
		end = opts.EndLine
	}
	width := max(len(strconv.Itoa(end)), minLineNumWidth)

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	n := 0
	for scanner.Scan() {
		n++
		if n < start {
			continue
		}
		if n > end {
			break
		}
		if opts.LineNumbers {
			fmt.Fprintf(w, "%*d\t%s", width, n, scanner.Text())
		} else {
			fmt.Fprint(w, scanner.Text())
		}
		if n < end || trailing {
			fmt.Fprintln(w)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	return nil
}
