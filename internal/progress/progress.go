// Package progress provides CLI progress indicators. Output goes to the
// diagnostics writer (stderr) to keep stdout clean for piping, and TTY
// detection keeps redirected output free of carriage returns.
package progress

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// minItems is the minimum number of items before showing progress.
const minItems = 5

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Progress tracks and displays counted progress, such as records imported
// or Actions processed.
type Progress struct {
	w       io.Writer
	label   string
	total   int
	current int
	isTTY   bool
}

// New creates a progress reporter writing to w. A total below minItems
// suppresses updates; a total of 0 means unknown and shows the count alone.
func New(w io.Writer, label string, total int) *Progress {
	return &Progress{
		w:     w,
		label: label,
		total: total,
		isTTY: isTerminal(w),
	}
}

// Increment advances the counter by one.
func (p *Progress) Increment() {
	p.current++
}

// Set moves the counter to n.
func (p *Progress) Set(n int) {
	p.current = n
}

// Current returns the counter.
func (p *Progress) Current() int {
	return p.current
}

func (p *Progress) quiet() bool {
	return !p.isTTY || (p.total > 0 && p.total < minItems)
}

// Print overwrites the progress line in place. No-op off a terminal.
func (p *Progress) Print() {
	if p.quiet() {
		return
	}
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s... %d", p.label, p.current)
		return
	}
	pct := (p.current * 100) / p.total
	fmt.Fprintf(p.w, "\r%s... %d/%d (%d%%)", p.label, p.current, p.total, pct)
}

// Done clears the progress line to make way for final output.
func (p *Progress) Done() {
	if p.quiet() {
		return
	}
	fmt.Fprintf(p.w, "\r%s\r", "                                        ")
}

// Spinner provides visual feedback for indeterminate operations.
type Spinner struct {
	w       io.Writer
	label   string
	frame   int
	isTTY   bool
	frames  []string
	running bool
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		w:      w,
		label:  label,
		isTTY:  isTerminal(w),
		frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start displays the spinner.
func (s *Spinner) Start() {
	if !s.isTTY {
		return
	}
	s.running = true
	fmt.Fprintf(s.w, "%s %s...", s.frames[0], s.label)
}

// Tick advances the animation by one frame.
func (s *Spinner) Tick() {
	if !s.isTTY || !s.running {
		return
	}
	s.frame = (s.frame + 1) % len(s.frames)
	fmt.Fprintf(s.w, "\r%s %s...", s.frames[s.frame], s.label)
}

// Stop clears the spinner line.
func (s *Spinner) Stop() {
	if !s.isTTY || !s.running {
		return
	}
	s.running = false
	fmt.Fprintf(s.w, "\r%s\r", "                                        ")
}
