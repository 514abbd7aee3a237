// Package guide serves the help pages embedded in the binary. The CLI's
// guide command and the docstore_guide MCP tool both read from here.
package guide

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed *.md
var files embed.FS

// ErrUnknownTopic is returned by Get for a topic with no page.
var ErrUnknownTopic = errors.New("unknown guide topic")

// Get returns the page for topic. An empty topic returns the index.
func Get(topic string) (string, error) {
	if topic == "" {
		topic = "guide"
	}
	data, err := files.ReadFile(strings.ToLower(topic) + ".md")
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// List returns the topic names, excluding the index.
func List() ([]string, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Name() != "guide.md" {
			names = append(names, strings.TrimSuffix(e.Name(), ".md"))
		}
	}
	return names, nil
}
