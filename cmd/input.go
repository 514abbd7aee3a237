/*
Copyright © 2026 James Lawson (jpl-au) <hello@caelisco.net>
*/

// input.go reads command input: content from stdin or a file, JSON with
// comments for payloads, and interactive confirmations.

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/peterh/liner"
	"github.com/tailscale/hujson"
)

// in is the input reader for commands. Tests replace it.
var in io.Reader = os.Stdin

// SetIn sets the input reader (for testing).
func SetIn(r io.Reader) { in = r }

// ReadInput returns the contents of file, or stdin when file is "" or "-".
func ReadInput(file string) ([]byte, error) {
	if file == "" || file == "-" {
		b, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return b, nil
}

// DecodeJSONC decodes JSON that may carry comments and trailing commas.
func DecodeJSONC(data []byte, v any) error {
	std, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := json.Unmarshal(std, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Confirm asks a yes/no question on the terminal. Anything but y or yes,
// including an aborted prompt, is a no.
func Confirm(question string) bool {
	l := liner.NewLiner()
	defer l.Close()
	l.SetCtrlCAborts(true)

	answer, err := l.Prompt(question + " [y/N] ")
	if err != nil {
		return false
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}
