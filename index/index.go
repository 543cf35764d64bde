// Package index implements the hybrid dense+lexical retrieval index with
// Reciprocal Rank Fusion.
package index

import (
	"context"
	"sort"
	"strings"

	"github.com/fwojciec/helpdex"
)

// rrfK is the Reciprocal Rank Fusion constant. A document missing from one
// ranker's candidate list is assigned this rank as a penalty instead of being
// excluded, so a chunk strong in only one modality can still surface.
const rrfK = 60

// DefaultSnippetHalfWidth is the number of characters kept on each side of a
// snippet match, for a window of about 200 characters in total.
const DefaultSnippetHalfWidth = 100

// Config controls query-time behavior of a hybrid index.
type Config struct {
	// SnippetHalfWidth overrides the snippet window half-width. Zero means
	// DefaultSnippetHalfWidth.
	SnippetHalfWidth int
}

// Ensure Hybrid implements helpdex.Searcher at compile time.
var _ helpdex.Searcher = (*Hybrid)(nil)

// Hybrid maintains a dense and a lexical ranker over the same chunk ordering
// and fuses their rankings at query time. Build and FromArtifacts are not
// safe for concurrent use; a built index is read-only and safe to share
// across queries.
type Hybrid struct {
	embedder helpdex.Embedder
	snippetW int

	source helpdex.Source
	runID  string
	dims   int

	chunks  []*helpdex.Chunk
	byID    map[string]int // chunk id -> position, the single reverse lookup
	vectors [][]float32
	tokens  [][]string

	dense   *denseRanker
	lexical *bm25

	anchors  helpdex.AnchorMap
	graph    helpdex.LinkGraph
	keywords map[string][]string

	built bool
}

// New creates an empty hybrid index bound to an embedder. The index is
// unusable until Build or FromArtifacts succeeds.
func New(embedder helpdex.Embedder, cfg Config) *Hybrid {
	w := cfg.SnippetHalfWidth
	if w == 0 {
		w = DefaultSnippetHalfWidth
	}
	return &Hybrid{embedder: embedder, snippetW: w}
}

// Build embeds and indexes the full chunk set for one source in a single
// batch. There is no incremental update: a rebuild replaces everything.
func (h *Hybrid) Build(ctx context.Context, source helpdex.Source, runID string, chunks []*helpdex.Chunk, anchors helpdex.AnchorMap, graph helpdex.LinkGraph, keywords map[string][]string) error {
	if len(chunks) == 0 {
		return helpdex.Errorf(helpdex.EINVALID, "cannot build index for source %q from an empty chunk set", source)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := h.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return helpdex.Errorf(helpdex.EINTERNAL, "embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	tokens := make([][]string, len(chunks))
	for i, chunk := range chunks {
		tokens[i] = Tokenize(chunk.Content)
	}

	h.source = source
	h.runID = runID
	h.dims = len(vectors[0])
	h.chunks = chunks
	h.vectors = vectors
	h.tokens = tokens
	h.anchors = anchors
	h.graph = graph
	h.keywords = keywords
	h.index()
	return nil
}

// FromArtifacts restores a previously built index. The search contract must
// round-trip: a fixed query and k return identical results before a save and
// after the matching load.
func (h *Hybrid) FromArtifacts(a *helpdex.IndexArtifacts) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Model != h.embedder.Model() {
		return helpdex.Errorf(helpdex.EINVALID, "index for source %q was built with model %q, embedder provides %q", a.Source, a.Model, h.embedder.Model())
	}

	h.source = a.Source
	h.runID = a.RunID
	h.dims = a.Dimensions
	h.chunks = a.Chunks
	h.vectors = a.Vectors
	h.tokens = a.TokenLists
	h.anchors = a.Anchors
	h.graph = a.Graph
	h.keywords = a.Keywords
	h.index()
	return nil
}

// index builds the in-memory rankers and the position table.
func (h *Hybrid) index() {
	h.byID = make(map[string]int, len(h.chunks))
	for pos, chunk := range h.chunks {
		h.byID[chunk.ID] = pos
	}
	h.dense = newDenseRanker(h.vectors, h.dims)
	h.lexical = newBM25(h.tokens)
	h.built = true
}

// Artifacts exports the complete persistable state of the index.
func (h *Hybrid) Artifacts() *helpdex.IndexArtifacts {
	return &helpdex.IndexArtifacts{
		Source:     h.source,
		RunID:      h.runID,
		Model:      h.embedder.Model(),
		Dimensions: h.dims,
		Chunks:     h.chunks,
		Vectors:    h.vectors,
		TokenLists: h.tokens,
		Anchors:    h.anchors,
		Graph:      h.graph,
		Keywords:   h.keywords,
	}
}

// Source reports which source the index was built for.
func (h *Hybrid) Source() helpdex.Source { return h.source }

// Graph returns the link graph carried alongside the index.
func (h *Hybrid) Graph() helpdex.LinkGraph { return h.graph }

// Keywords returns the optional keyword map, which may be nil.
func (h *Hybrid) Keywords() map[string][]string { return h.keywords }

// Search retrieves 2k candidates from each ranker, fuses them by reciprocal
// rank and returns the top k. Fused-score ties break by chunk ID so results
// are deterministic.
func (h *Hybrid) Search(ctx context.Context, query string, k int) ([]helpdex.SearchResult, error) {
	if !h.built {
		return nil, helpdex.Errorf(helpdex.EUNAVAILABLE, "index is not built; ingest the source before searching")
	}
	if strings.TrimSpace(query) == "" {
		return nil, helpdex.Errorf(helpdex.EINVALID, "search query required")
	}
	if k <= 0 {
		return nil, helpdex.Errorf(helpdex.EINVALID, "result count must be positive, got %d", k)
	}

	vectors, err := h.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, helpdex.Errorf(helpdex.EINTERNAL, "embedder returned %d vectors for one query", len(vectors))
	}
	if len(vectors[0]) != h.dims {
		return nil, helpdex.Errorf(helpdex.EINTERNAL, "query embedding has %d dimensions, index has %d", len(vectors[0]), h.dims)
	}

	denseRanks := rankOf(h.dense.topK(vectors[0], 2*k))
	lexicalRanks := rankOf(h.lexical.topK(Tokenize(query), 2*k))

	fused := make(map[int]float64, len(denseRanks)+len(lexicalRanks))
	for pos := range denseRanks {
		fused[pos] = 0
	}
	for pos := range lexicalRanks {
		fused[pos] = 0
	}
	for pos := range fused {
		fused[pos] = rrfScore(denseRanks, pos) + rrfScore(lexicalRanks, pos)
	}

	ranked := make([]scored, 0, len(fused))
	for pos, score := range fused {
		ranked = append(ranked, scored{pos: pos, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return h.chunks[ranked[i].pos].ID < h.chunks[ranked[j].pos].ID
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	results := make([]helpdex.SearchResult, len(ranked))
	for i, r := range ranked {
		chunk := h.chunks[r.pos]
		results[i] = helpdex.SearchResult{
			ChunkID:    chunk.ID,
			Title:      chunk.Title,
			Path:       chunk.Path,
			Snippet:    snippet(chunk.Content, query, h.snippetW),
			Score:      r.score,
			Source:     chunk.Source,
			ChunkIndex: chunk.ChunkIndex,
		}
	}
	return results, nil
}

// rankOf converts a ranker's sorted candidate list into position -> 0-based
// rank. Ranks are comparable across rankers; raw scores are not.
func rankOf(candidates []scored) map[int]int {
	ranks := make(map[int]int, len(candidates))
	for rank, c := range candidates {
		ranks[c.pos] = rank
	}
	return ranks
}

// rrfScore contributes 1/(K + rank + 1) for a ranked document, using the
// worst rank K when the document is missing from this ranker's candidates.
func rrfScore(ranks map[int]int, pos int) float64 {
	rank, ok := ranks[pos]
	if !ok {
		rank = rrfK
	}
	return 1 / float64(rrfK+rank+1)
}

// GetChunkByID returns the chunk with the given ID.
func (h *Hybrid) GetChunkByID(id string) (*helpdex.Chunk, error) {
	if !h.built {
		return nil, helpdex.Errorf(helpdex.EUNAVAILABLE, "index is not built; ingest the source before reading chunks")
	}
	pos, ok := h.byID[id]
	if !ok {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "chunk %q not found in source %q", id, h.source)
	}
	return h.chunks[pos], nil
}

// GetChunkByAnchor resolves a page anchor to the chunk that contains it. The
// lookup is two-level: anchor map first, then chunk by stored ID, because one
// chunk may serve several anchors.
func (h *Hybrid) GetChunkByAnchor(pageID, anchor string) (*helpdex.Chunk, error) {
	if !h.built {
		return nil, helpdex.Errorf(helpdex.EUNAVAILABLE, "index is not built; ingest the source before resolving anchors")
	}
	loc, ok := h.anchors[helpdex.AnchorKey(pageID, anchor)]
	if !ok {
		return nil, helpdex.Errorf(helpdex.ENOTFOUND, "anchor %q not found on page %q", anchor, pageID)
	}
	return h.GetChunkByID(loc.ChunkID)
}

// snippet returns a window of content around the first case-insensitive match
// of the query, with ellipses at truncated boundaries, or a prefix window
// when the query string does not occur verbatim. Lexical matches on
// non-contiguous tokens can therefore miss the snippet; that is accepted.
func snippet(content, query string, halfWidth int) string {
	pos := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if pos < 0 {
		if len(content) <= 2*halfWidth {
			return content
		}
		return content[:2*halfWidth] + "..."
	}

	start := pos - halfWidth
	end := pos + len(query) + halfWidth
	prefix, suffix := "", ""
	if start < 0 {
		start = 0
	} else if start > 0 {
		prefix = "..."
	}
	if end >= len(content) {
		end = len(content)
	} else {
		suffix = "..."
	}
	return prefix + content[start:end] + suffix
}
