// resources.go serves records as MCP resources at
// docstore://documents/{id}, for clients that load context without
// calling a tool.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	// ErrInvalidURI indicates a URI outside the docstore://documents/ scheme.
	ErrInvalidURI = errors.New("invalid URI")
	// ErrEmptyID indicates a resource URI without a record id.
	ErrEmptyID = errors.New("empty record id")
	// ErrNotFound is returned for ids with no live record.
	ErrNotFound = errors.New("record not found")
)

func (h *handlers) readDocumentResource(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	if h.svc == nil {
		return nil, errors.New(ErrNotInitialised)
	}
	id, err := parseDocumentURI(uri)
	if err != nil {
		return nil, err
	}
	doc, err := h.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     doc.Content,
		},
	}, nil
}

// parseDocumentURI extracts the record id from a document URI.
func parseDocumentURI(uri string) (string, error) {
	const prefix = "docstore://documents/"
	if !strings.HasPrefix(uri, prefix) {
		return "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	id := strings.TrimPrefix(uri, prefix)
	if id == "" {
		return "", ErrEmptyID
	}
	return id, nil
}
