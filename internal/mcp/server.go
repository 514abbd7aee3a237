// Package mcp implements the Model Context Protocol server, exposing
// docstore operations to LLMs over stdio.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/jpl-au/docstore/extension"
	"github.com/jpl-au/docstore/internal/config"
	"github.com/jpl-au/docstore/internal/document"
	"github.com/jpl-au/docstore/internal/repo"
	"github.com/jpl-au/docstore/internal/service"
	"github.com/jpl-au/docstore/internal/version"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ErrNotInitialised is returned by tools when no project exists yet.
const ErrNotInitialised = "store not initialised - call docstore_init first"

// Config selects the project a server opens and the tools extensions
// contribute.
type Config struct {
	Dir     string // project directory; discovery (or DOCSTORE_DIR) when empty
	Options document.Options
	Tools   []extension.MCPTool
}

// Serve starts the MCP server over stdio.
//
// The server starts even if no project exists so that a client can call
// docstore_init. Tools that need a store return ErrNotInitialised until
// then.
func Serve(cfg Config) error {
	// stdout carries JSON-RPC
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	opts := cfg.Options
	opts.Source = "mcp"
	if opts.Logger == nil {
		opts.Logger = logger
	}
	h := &handlers{opts: opts, dir: cfg.Dir}
	if h.dir == "" {
		h.dir = os.Getenv(config.EnvDir)
	}
	if h.dir == "" {
		h.dir = "."
	}

	svc, err := open(cfg.Dir, opts)
	if err != nil && !errors.Is(err, repo.ErrNotInitialised) {
		slog.Error("failed to open store", "error", err)
		return err
	}
	if err == nil {
		h.svc = svc
		defer svc.Close()
	} else {
		slog.Info("docstore not initialised, starting in uninitialised mode - call docstore_init to create a store")
	}

	s := newServer(h)
	registerExtensionTools(s, h, cfg.Tools)
	slog.Info("docstore MCP server ready", "version", version.Short(), "transport", "stdio", "extension_tools", len(cfg.Tools))

	err = server.ServeStdio(s)
	if errors.Is(err, context.Canceled) {
		slog.Info("server stopped")
		return nil
	}
	return err
}

func open(dir string, opts document.Options) (*document.Service, error) {
	if dir == "" {
		return document.New(opts)
	}
	root, err := repo.Explicit(dir)
	if err != nil {
		return nil, err
	}
	return document.OpenRoot(context.Background(), root, opts)
}

func newServer(h *handlers) *server.MCPServer {
	s := server.NewMCPServer(
		"docstore",
		version.Short(),
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)
	registerResources(s, h)
	registerTools(s, h)
	return s
}

// handlers holds the service the tools act on. svc is nil until the
// project is initialised.
type handlers struct {
	dir  string
	opts document.Options
	svc  service.Service
}

// requireInit returns an error result if the store is not initialised.
func (h *handlers) requireInit() *mcp.CallToolResult {
	if h.svc == nil {
		return mcp.NewToolResultError(ErrNotInitialised)
	}
	return nil
}

// extContext exposes the open store to extension tool handlers.
func (h *handlers) extContext() extension.Context {
	var cfg *config.Config
	if d, ok := h.svc.(*document.Service); ok {
		cfg = d.Config()
	}
	return extension.NewContext(h.svc, cfg, h.opts.Logger)
}

// scoped returns the service for the request's ns argument.
func (h *handlers) scoped(req mcp.CallToolRequest) (service.Service, error) {
	return h.svc.In(getString(req, "ns", ""))
}

func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"docstore://documents/{id}",
			"Document",
			mcp.WithTemplateDescription("Read a record's content by id"),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		h.readDocument,
	)
}

func registerTools(s *server.MCPServer, h *handlers) {
	s.AddTool(
		mcp.NewTool("docstore_init",
			mcp.WithDescription("Initialise a new docstore project. Call this first if other tools return 'store not initialised'."),
			mcp.WithString("backend", mcp.Description("Backend kind: relational (default), git or analytical")),
		),
		h.initStore,
	)

	s.AddTool(
		mcp.NewTool("docstore_get",
			mcp.WithDescription("Read a record by id"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Record id, e.g. posts/hello")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
			mcp.WithBoolean("raw", mcp.Description("Return soft-deleted records too")),
		),
		h.getDocument,
	)

	s.AddTool(
		mcp.NewTool("docstore_set",
			mcp.WithDescription("Create or replace a record"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Free-text body")),
			mcp.WithString("type", mcp.Description("Type tag")),
			mcp.WithObject("data", mcp.Description("Metadata payload")),
			mcp.WithString("context", mcp.Description("Linked-data context")),
			mcp.WithBoolean("create_only", mcp.Description("Fail if the record exists")),
			mcp.WithBoolean("update_only", mcp.Description("Fail if the record does not exist")),
			mcp.WithString("version", mcp.Description("Fail unless the current version matches")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
		),
		h.setDocument,
	)

	s.AddTool(
		mcp.NewTool("docstore_delete",
			mcp.WithDescription("Delete a record"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
			mcp.WithBoolean("soft", mcp.Description("Mark deleted instead of removing")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
		),
		h.deleteDocument,
	)

	s.AddTool(
		mcp.NewTool("docstore_list",
			mcp.WithDescription("List records, optionally filtered, sorted and paginated"),
			mcp.WithString("prefix", mcp.Description("Id prefix")),
			mcp.WithArray("types", mcp.Description("Match any of these types"), mcp.WithStringItems()),
			mcp.WithObject("where", mcp.Description("Data path equality predicates, e.g. {\"author.name\": \"ann\"}")),
			mcp.WithString("sort_by", mcp.Description("\"id\" or a data path")),
			mcp.WithBoolean("desc", mcp.Description("Sort descending")),
			mcp.WithNumber("limit", mcp.Description("Page size")),
			mcp.WithNumber("offset", mcp.Description("Page offset")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
		),
		h.listDocuments,
	)

	s.AddTool(
		mcp.NewTool("docstore_search",
			mcp.WithDescription("Rank records against search text"),
			mcp.WithString("query", mcp.Required(), mcp.Description("Whitespace-separated terms")),
			mcp.WithArray("fields", mcp.Description("Data fields to search besides content"), mcp.WithStringItems()),
			mcp.WithArray("types", mcp.Description("Match any of these types"), mcp.WithStringItems()),
			mcp.WithNumber("limit", mcp.Description("Page size")),
			mcp.WithNumber("offset", mcp.Description("Page offset")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
		),
		h.searchDocuments,
	)

	s.AddTool(
		mcp.NewTool("docstore_publish",
			mcp.WithDescription("Stage documents as a pending Action (analytical backend)"),
			mcp.WithArray("documents", mcp.Required(), mcp.Description("Objects with id, type, context, data and content")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
			mcp.WithString("repo", mcp.Description("Source repository")),
			mcp.WithString("branch", mcp.Description("Source branch")),
			mcp.WithString("commit", mcp.Description("Source commit")),
		),
		h.publish,
	)

	s.AddTool(
		mcp.NewTool("docstore_action",
			mcp.WithDescription("Show one Action by id, or list Actions when id is empty"),
			mcp.WithString("id", mcp.Description("Action id")),
			mcp.WithString("status", mcp.Description("Listing filter: pending (default), active, completed, failed or all")),
			mcp.WithNumber("limit", mcp.Description("Listing size")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
		),
		h.action,
	)

	s.AddTool(
		mcp.NewTool("docstore_process",
			mcp.WithDescription("Materialise pending Actions into records"),
			mcp.WithNumber("limit", mcp.Description("Maximum Actions to claim")),
			mcp.WithString("ns", mcp.Description("Only this namespace")),
		),
		h.process,
	)

	s.AddTool(
		mcp.NewTool("docstore_relations",
			mcp.WithDescription("List the edges leaving or arriving at a record (analytical backend)"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
			mcp.WithString("type", mcp.Description("Edge type")),
			mcp.WithBoolean("incoming", mcp.Description("Edges arriving at id")),
			mcp.WithString("ns", mcp.Description("Analytical namespace")),
		),
		h.relations,
	)

	s.AddTool(
		mcp.NewTool("docstore_guide",
			mcp.WithDescription("Get help content for docstore"),
			mcp.WithString("topic", mcp.Description("Guide topic or empty for the index")),
		),
		h.getGuide,
	)
}

// registerExtensionTools adds the tools extensions contribute. Each waits
// for the store like the built-in tools do.
func registerExtensionTools(s *server.MCPServer, h *handlers, tools []extension.MCPTool) {
	for _, t := range tools {
		handler := t.Handler
		s.AddTool(t.Tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if res := h.requireInit(); res != nil {
				return res, nil
			}
			return handler(ctx, h.extContext(), req)
		})
	}
}

// readDocument handles docstore://documents/{id} resource requests.
func (h *handlers) readDocument(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return h.readDocumentResource(ctx, req.Params.URI)
}
