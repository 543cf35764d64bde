package mcp

import (
	"context"
	"sort"
	"strings"

	"github.com/fwojciec/helpdex"
	"github.com/fwojciec/helpdex/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	defaultMaxResults = 5
	maxMaxResults     = 20
)

// SearchDocsInput defines input for the docs_search tool.
type SearchDocsInput struct {
	Source     string `json:"source" jsonschema:"Help archive to search, e.g. arxmgd or arxref"`
	Query      string `json:"query" jsonschema:"Search query"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 5)"`
}

// SearchDocsOutput defines output for the docs_search tool.
type SearchDocsOutput struct {
	Source  string                 `json:"source"`
	Query   string                 `json:"query"`
	Results []helpdex.SearchResult `json:"results"`
}

// SearchDocs performs fused retrieval over one source's index.
func (s *Server) SearchDocs(ctx context.Context, req *mcp.CallToolRequest, input SearchDocsInput) (*mcp.CallToolResult, SearchDocsOutput, error) {
	h, err := s.getIndex(ctx, input.Source)
	if err != nil {
		return failure(err, input.Source), SearchDocsOutput{}, nil
	}

	k := input.MaxResults
	if k <= 0 {
		k = defaultMaxResults
	}
	if k > maxMaxResults {
		k = maxMaxResults
	}
	results, err := h.Search(ctx, input.Query, k)
	if err != nil {
		return failure(err, ""), SearchDocsOutput{}, nil
	}
	if len(results) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "No results found."}},
		}, SearchDocsOutput{Source: input.Source, Query: input.Query}, nil
	}
	return nil, SearchDocsOutput{Source: input.Source, Query: input.Query, Results: results}, nil
}

// GetDocInput defines input for the docs_get tool.
type GetDocInput struct {
	Source  string `json:"source" jsonschema:"Help archive the chunk belongs to"`
	ChunkID string `json:"chunk_id" jsonschema:"Chunk ID, as returned by docs_search"`
	Format  string `json:"format,omitempty" jsonschema:"Content format: text (default) or html"`
}

// GetDocOutput defines output for the docs_get tool.
type GetDocOutput struct {
	ChunkID     string `json:"chunk_id"`
	Title       string `json:"title"`
	Path        string `json:"path"`
	PageID      string `json:"page_id"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Content     string `json:"content"`
}

// GetDoc fetches one chunk by ID in the requested format.
func (s *Server) GetDoc(ctx context.Context, req *mcp.CallToolRequest, input GetDocInput) (*mcp.CallToolResult, GetDocOutput, error) {
	format := strings.ToLower(input.Format)
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "html" {
		err := helpdex.Errorf(helpdex.EINVALID, "unknown format %q, expected text or html", input.Format)
		return failure(err, ""), GetDocOutput{}, nil
	}

	h, err := s.getIndex(ctx, input.Source)
	if err != nil {
		return failure(err, input.Source), GetDocOutput{}, nil
	}
	chunk, err := h.GetChunkByID(input.ChunkID)
	if err != nil {
		return failure(err, ""), GetDocOutput{}, nil
	}

	content := chunk.Content
	if format == "html" {
		content = chunk.HTML
	}
	return nil, GetDocOutput{
		ChunkID:     chunk.ID,
		Title:       chunk.Title,
		Path:        chunk.Path,
		PageID:      chunk.PageID,
		ChunkIndex:  chunk.ChunkIndex,
		TotalChunks: chunk.TotalChunks,
		Content:     content,
	}, nil
}

// GetAnchorInput defines input for the docs_anchor tool.
type GetAnchorInput struct {
	Source string `json:"source" jsonschema:"Help archive the page belongs to"`
	PageID string `json:"page_id" jsonschema:"Page ID"`
	Anchor string `json:"anchor" jsonschema:"Anchor name within the page, e.g. ArcCtor"`
}

// GetAnchor resolves a page anchor to its chunk.
func (s *Server) GetAnchor(ctx context.Context, req *mcp.CallToolRequest, input GetAnchorInput) (*mcp.CallToolResult, GetDocOutput, error) {
	h, err := s.getIndex(ctx, input.Source)
	if err != nil {
		return failure(err, input.Source), GetDocOutput{}, nil
	}
	chunk, err := h.GetChunkByAnchor(input.PageID, input.Anchor)
	if err != nil {
		return failure(err, ""), GetDocOutput{}, nil
	}
	return nil, GetDocOutput{
		ChunkID:     chunk.ID,
		Title:       chunk.Title,
		Path:        chunk.Path,
		PageID:      chunk.PageID,
		ChunkIndex:  chunk.ChunkIndex,
		TotalChunks: chunk.TotalChunks,
		Content:     chunk.Content,
	}, nil
}

// PageRef identifies a related page in tool output.
type PageRef struct {
	PageID string `json:"page_id"`
	Title  string `json:"title,omitempty"`
	Path   string `json:"path,omitempty"`
}

// GetNeighborsInput defines input for the docs_neighbors tool.
type GetNeighborsInput struct {
	Source string `json:"source" jsonschema:"Help archive the page belongs to"`
	PageID string `json:"page_id" jsonschema:"Page ID"`
}

// GetNeighborsOutput defines output for the docs_neighbors tool.
type GetNeighborsOutput struct {
	PageID   string    `json:"page_id"`
	Parent   *PageRef  `json:"parent,omitempty"`
	Children []PageRef `json:"children,omitempty"`
	SeeAlso  []PageRef `json:"see_also,omitempty"`
}

// GetNeighbors lists a page's hierarchical and associative relations.
func (s *Server) GetNeighbors(ctx context.Context, req *mcp.CallToolRequest, input GetNeighborsInput) (*mcp.CallToolResult, GetNeighborsOutput, error) {
	h, err := s.getIndex(ctx, input.Source)
	if err != nil {
		return failure(err, input.Source), GetNeighborsOutput{}, nil
	}

	n := h.Graph().GetNeighbors(input.PageID)
	out := GetNeighborsOutput{PageID: input.PageID}
	if n.Parent != "" {
		ref := s.pageRef(h, n.Parent)
		out.Parent = &ref
	}
	for _, id := range n.Children {
		out.Children = append(out.Children, s.pageRef(h, id))
	}
	for _, id := range n.SeeAlso {
		out.SeeAlso = append(out.SeeAlso, s.pageRef(h, id))
	}
	if out.Parent == nil && len(out.Children) == 0 && len(out.SeeAlso) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "No related pages found."}},
		}, out, nil
	}
	return nil, out, nil
}

// pageRef enriches a page ID with the title and path of its first chunk.
// Pages without indexed chunks keep the bare ID.
func (s *Server) pageRef(h *index.Hybrid, pageID string) PageRef {
	ref := PageRef{PageID: pageID}
	if chunk, err := h.GetChunkByID(helpdex.ChunkID(pageID, 0)); err == nil {
		ref.Title = chunk.Title
		ref.Path = chunk.Path
	}
	return ref
}

// KeywordMatch is one keyword index entry in tool output.
type KeywordMatch struct {
	Term  string    `json:"term"`
	Pages []PageRef `json:"pages"`
}

// GetKeywordsInput defines input for the docs_keywords tool.
type GetKeywordsInput struct {
	Source string `json:"source" jsonschema:"Help archive whose keyword index to consult"`
	Term   string `json:"term" jsonschema:"Keyword to look up; falls back to substring matching when no exact entry exists"`
}

// GetKeywordsOutput defines output for the docs_keywords tool.
type GetKeywordsOutput struct {
	Term    string         `json:"term"`
	Matches []KeywordMatch `json:"matches"`
}

// maxKeywordMatches caps substring fallback output.
const maxKeywordMatches = 20

// GetKeywords looks up a term in the archive's keyword index.
func (s *Server) GetKeywords(ctx context.Context, req *mcp.CallToolRequest, input GetKeywordsInput) (*mcp.CallToolResult, GetKeywordsOutput, error) {
	if strings.TrimSpace(input.Term) == "" {
		err := helpdex.Errorf(helpdex.EINVALID, "keyword term required")
		return failure(err, ""), GetKeywordsOutput{}, nil
	}

	h, err := s.getIndex(ctx, input.Source)
	if err != nil {
		return failure(err, input.Source), GetKeywordsOutput{}, nil
	}

	keywords := h.Keywords()
	out := GetKeywordsOutput{Term: input.Term}

	if pageIDs, ok := keywords[input.Term]; ok {
		out.Matches = append(out.Matches, s.keywordMatch(h, input.Term, pageIDs))
		return nil, out, nil
	}

	// No exact entry: fall back to case-insensitive substring matching over
	// the terms, in sorted order for deterministic output.
	needle := strings.ToLower(input.Term)
	terms := make([]string, 0, len(keywords))
	for term := range keywords {
		if strings.Contains(strings.ToLower(term), needle) {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	if len(terms) > maxKeywordMatches {
		terms = terms[:maxKeywordMatches]
	}
	for _, term := range terms {
		out.Matches = append(out.Matches, s.keywordMatch(h, term, keywords[term]))
	}

	if len(out.Matches) == 0 {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "No keyword entries found."}},
		}, out, nil
	}
	return nil, out, nil
}

func (s *Server) keywordMatch(h *index.Hybrid, term string, pageIDs []string) KeywordMatch {
	match := KeywordMatch{Term: term}
	for _, id := range pageIDs {
		match.Pages = append(match.Pages, s.pageRef(h, id))
	}
	return match
}

// ListSourcesInput defines input for the docs_list_sources tool.
type ListSourcesInput struct{}

// SourceStatus reports one source's availability.
type SourceStatus struct {
	Name  string `json:"name"`
	Built bool   `json:"built"`
}

// ListSourcesOutput defines output for the docs_list_sources tool.
type ListSourcesOutput struct {
	Sources []SourceStatus `json:"sources"`
}

// ListSources lists all known archives and whether each has a built index.
func (s *Server) ListSources(ctx context.Context, req *mcp.CallToolRequest, input ListSourcesInput) (*mcp.CallToolResult, ListSourcesOutput, error) {
	built, err := s.store.ListBuilt(ctx)
	if err != nil {
		return failure(err, ""), ListSourcesOutput{}, nil
	}
	builtSet := make(map[helpdex.Source]bool, len(built))
	for _, source := range built {
		builtSet[source] = true
	}

	var out ListSourcesOutput
	for _, source := range helpdex.Sources() {
		out.Sources = append(out.Sources, SourceStatus{
			Name:  string(source),
			Built: builtSet[source],
		})
	}
	return nil, out, nil
}
