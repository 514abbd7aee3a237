// Package format provides output formatting utilities for CLI display.
//
// Centralises formatting logic so that command implementations focus on
// record operations while this package handles column alignment, tree
// rendering and search snippets.
package format

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jpl-au/docstore/internal/analytical"
	"github.com/jpl-au/docstore/internal/store"
)

// humanSize formats a byte count as human-readable (e.g., "1.2K", "3.4M").
func humanSize(bytes int64) string {
	const (
		_        = iota
		KB int64 = 1 << (10 * iota)
		MB
		GB
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1fG", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1fM", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1fK", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// shortVersion trims long version tokens (git blob hashes) for display.
func shortVersion(v string) string {
	if len(v) > 10 {
		return v[:10]
	}
	return v
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func deleted(d *store.Document) string {
	if d.DeletedAt != nil {
		return " [deleted]"
	}
	return ""
}

// IDs prints record ids, one per line.
func IDs(w io.Writer, docs []store.Document) error {
	for i := range docs {
		fmt.Fprintf(w, "%s%s\n", docs[i].ID, deleted(&docs[i]))
	}
	return nil
}

// Long prints records with version, type, size and update time.
//
// Fixed-width columns come first; the variable-length id goes last so it
// never disturbs alignment.
func Long(w io.Writer, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	maxType := 4 // "TYPE"
	for i := range docs {
		if len(docs[i].Type) > maxType {
			maxType = len(docs[i].Type)
		}
	}

	fmt.Fprintf(w, "%-10s  %-*s  %6s  %-16s  %s\n", "VERSION", maxType, "TYPE", "SIZE", "UPDATED", "ID")
	for i := range docs {
		d := &docs[i]
		typ := d.Type
		if typ == "" {
			typ = "-"
		}
		fmt.Fprintf(w, "%-10s  %-*s  %6s  %-16s  %s%s\n",
			shortVersion(d.Version), maxType, typ, humanSize(int64(len(d.Content))), date(d.UpdatedAt), d.ID, deleted(d))
	}
	return nil
}

// Tree prints records as an id hierarchy.
func Tree(w io.Writer, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	type node struct {
		children map[string]*node
		isDoc    bool
		deleted  bool
	}

	root := &node{children: make(map[string]*node)}
	for i := range docs {
		parts := strings.Split(docs[i].ID, "/")
		current := root
		for j, part := range parts {
			if current.children[part] == nil {
				current.children[part] = &node{children: make(map[string]*node)}
			}
			current = current.children[part]
			if j == len(parts)-1 {
				current.isDoc = true
				current.deleted = docs[i].DeletedAt != nil
			}
		}
	}

	var printNode func(n *node, prefix string)
	printNode = func(n *node, prefix string) {
		names := make([]string, 0, len(n.children))
		for name := range n.children {
			names = append(names, name)
		}
		sort.Strings(names)

		for i, name := range names {
			child := n.children[name]
			last := i == len(names)-1

			connector := "├── "
			if last {
				connector = "└── "
			}

			suffix := ""
			if len(child.children) > 0 {
				suffix = "/"
			}
			if child.deleted {
				suffix += " [deleted]"
			}
			fmt.Fprintf(w, "%s%s%s%s\n", prefix, connector, name, suffix)

			pfx := prefix + "│   "
			if last {
				pfx = prefix + "    "
			}
			if len(child.children) > 0 {
				printNode(child, pfx)
			}
		}
	}

	printNode(root, "")
	return nil
}

// PageFooter summarises which slice of the result set was shown.
func PageFooter(w io.Writer, p store.Page, offset int) {
	if !p.HasMore && offset == 0 {
		return
	}
	if len(p.Documents) == 0 {
		fmt.Fprintf(w, "(no records at offset %d of %d)\n", offset, p.Total)
		return
	}
	fmt.Fprintf(w, "(%d-%d of %d)\n", offset+1, offset+len(p.Documents), p.Total)
}

// snippetWidth caps the matching line shown per search hit.
const snippetWidth = 80

// SearchResults prints each hit's score and id, then the first content
// line containing any term.
func SearchResults(w io.Writer, docs []store.Document, text string) error {
	terms := strings.Fields(strings.ToLower(text))
	for i := range docs {
		d := &docs[i]
		fmt.Fprintf(w, "%6.3f  %s\n", d.Score, d.ID)
		if line, n := matchLine(d.Content, terms); n > 0 {
			fmt.Fprintf(w, "        %d: %s\n", n, line)
		}
	}
	return nil
}

func matchLine(content string, terms []string) (string, int) {
	for i, line := range strings.Split(content, "\n") {
		lower := strings.ToLower(line)
		for _, t := range terms {
			if strings.Contains(lower, t) {
				line = strings.TrimSpace(line)
				if len(line) > snippetWidth {
					line = line[:snippetWidth-3] + "..."
				}
				return line, i + 1
			}
		}
	}
	return "", 0
}

// Actions prints staged Actions in a table.
func Actions(w io.Writer, actions []analytical.Action) error {
	if len(actions) == 0 {
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-9s  %-10s  %8s  %-16s  %s\n", "ID", "STATUS", "NS", "PROGRESS", "CREATED", "ACTOR")
	for _, a := range actions {
		actor := a.Actor
		if actor == "" {
			actor = "-"
		}
		fmt.Fprintf(w, "%-36s  %-9s  %-10s  %8s  %-16s  %s\n",
			a.ID, a.Status, a.NS, fmt.Sprintf("%d/%d", a.Progress, a.Total), date(a.CreatedAt), actor)
	}
	return nil
}

// Action prints one Action in detail.
func Action(w io.Writer, a *analytical.Action) error {
	fmt.Fprintf(w, "ID:        %s\n", a.ID)
	fmt.Fprintf(w, "Status:    %s\n", a.Status)
	fmt.Fprintf(w, "Namespace: %s\n", a.NS)
	fmt.Fprintf(w, "Progress:  %d/%d\n", a.Progress, a.Total)
	fmt.Fprintf(w, "Created:   %s\n", date(a.CreatedAt))
	if a.Actor != "" {
		fmt.Fprintf(w, "Actor:     %s\n", a.Actor)
	}
	if a.Meta.Repo != "" || a.Meta.Commit != "" {
		fmt.Fprintf(w, "Source:    %s@%s (%s)\n", a.Meta.Repo, a.Meta.Branch, a.Meta.Commit)
	}
	if a.Result != nil {
		fmt.Fprintf(w, "Things:    %d\n", a.Result.Things)
	}
	if a.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", a.Error)
	}
	return nil
}

// Relations prints edges as "from -type-> to".
func Relations(w io.Writer, rels []analytical.Relation) error {
	for _, r := range rels {
		fmt.Fprintf(w, "%s -%s-> %s\n", r.From, r.Type, r.To)
	}
	return nil
}
