// Package mcp exposes the documentation index over the Model Context
// Protocol.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fwojciec/helpdex"
	"github.com/fwojciec/helpdex/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "helpdex"

// Server serves query tools over loaded index snapshots. Indexes are loaded
// lazily per source; loading is serialized, serving is lock-free reads of a
// published snapshot.
type Server struct {
	store    helpdex.IndexStore
	embedder helpdex.Embedder
	logger   *slog.Logger
	version  string

	mu      sync.RWMutex
	indexes map[helpdex.Source]*index.Hybrid
}

// NewServer creates a Server. A nil logger falls back to slog.Default.
func NewServer(store helpdex.IndexStore, embedder helpdex.Embedder, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:    store,
		embedder: embedder,
		logger:   logger,
		version:  version,
		indexes:  make(map[helpdex.Source]*index.Hybrid),
	}
}

// Run serves the MCP protocol on stdio until the context is canceled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: s.version}, nil)
	s.register(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "docs_search",
		Description: "Search a help archive with hybrid semantic and keyword retrieval. Returns ranked chunks with snippets.",
	}, s.SearchDocs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "docs_get",
		Description: "Fetch one chunk by its ID, as plain text or original HTML.",
	}, s.GetDoc)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "docs_anchor",
		Description: "Resolve a page anchor (for example a method or property marker) to the chunk that contains it.",
	}, s.GetAnchor)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "docs_neighbors",
		Description: "List a page's table-of-contents parent and children plus its see-also pages.",
	}, s.GetNeighbors)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "docs_keywords",
		Description: "Look up a term in the archive's keyword index and list the pages it points at.",
	}, s.GetKeywords)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "docs_list_sources",
		Description: "List the known help archives and whether each has a built index.",
	}, s.ListSources)
}

// getIndex returns the published snapshot for a source, loading it on first
// use. Concurrent loads of the same source are serialized; readers of an
// already-published snapshot never block on a load.
func (s *Server) getIndex(ctx context.Context, raw string) (*index.Hybrid, error) {
	source, err := helpdex.ParseSource(raw)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	h, ok := s.indexes[source]
	s.mu.RUnlock()
	if ok {
		return h, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.indexes[source]; ok {
		return h, nil
	}

	artifacts, err := s.store.LoadArtifacts(ctx, source)
	if err != nil {
		return nil, err
	}
	h = index.New(s.embedder, index.Config{})
	if err := h.FromArtifacts(artifacts); err != nil {
		return nil, err
	}
	s.logger.Info("loaded index snapshot",
		"source", source,
		"chunks", len(artifacts.Chunks),
		"run_id", artifacts.RunID,
	)
	s.indexes[source] = h
	return h, nil
}

// failure renders a value-level failure as a tool result instead of a
// protocol error, so clients get actionable text rather than a crash.
func failure(err error, source string) *mcp.CallToolResult {
	msg := helpdex.ErrorMessage(err)
	if helpdex.ErrorCode(err) == helpdex.ENOTFOUND && source != "" {
		msg = fmt.Sprintf("%s Run `helpdex ingest %s <archive-dir>` to build it.", msg, source)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
