package helpdex

import "context"

// SearchResult is one ranked hit from the hybrid index. It is ephemeral:
// produced per query, never persisted.
type SearchResult struct {
	ChunkID    string  `json:"chunkId"`
	Title      string  `json:"title"`
	Path       string  `json:"path"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
	Source     Source  `json:"source"`
	ChunkIndex int     `json:"chunkIndex"`
}

// Searcher performs fused ranked retrieval over an index snapshot.
// Implementations are safe for concurrent use once built or loaded.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// Embedder converts texts into fixed-length dense vectors. For a fixed model
// identifier the output is deterministic, and dimensionality must match
// between index build and query time.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model; recorded in index artifacts so
	// a mismatch can be detected at load time.
	Model() string
}

// IndexArtifacts is the complete persistable state of a built index for one
// source: the dense vector matrix, the lexical token lists, the
// position-ordered chunk records, the anchor map, and the link graph.
// Positions are aligned: Chunks[i], Vectors[i] and TokenLists[i] describe
// the same chunk.
type IndexArtifacts struct {
	Source     Source
	RunID      string // ingestion run that produced the artifacts
	Model      string
	Dimensions int

	Chunks     []*Chunk
	Vectors    [][]float32
	TokenLists [][]string

	Anchors AnchorMap
	Graph   LinkGraph

	// Keywords is the optional HHK-derived term -> page IDs map. Its
	// absence never fails a load.
	Keywords map[string][]string
}

// Validate returns an error if the artifacts are internally inconsistent.
func (a *IndexArtifacts) Validate() error {
	if a.Source.DirName() == "" {
		return Errorf(EINVALID, "artifact source required")
	}
	if len(a.Chunks) == 0 {
		return Errorf(EINVALID, "artifacts contain no chunks")
	}
	if len(a.Vectors) != len(a.Chunks) {
		return Errorf(EINVALID, "vector count %d does not match chunk count %d", len(a.Vectors), len(a.Chunks))
	}
	if len(a.TokenLists) != len(a.Chunks) {
		return Errorf(EINVALID, "token list count %d does not match chunk count %d", len(a.TokenLists), len(a.Chunks))
	}
	return nil
}

// IndexStore persists and restores index artifacts. Save must replace any
// previous artifacts for the source atomically: a reader sees either the old
// complete set or the new complete set, never a mix. Load returns ENOTFOUND
// naming the missing artifact and source if any required artifact is absent;
// it never returns a partially usable set.
type IndexStore interface {
	SaveArtifacts(ctx context.Context, a *IndexArtifacts) error
	LoadArtifacts(ctx context.Context, source Source) (*IndexArtifacts, error)

	// ListBuilt reports which sources currently have persisted artifacts.
	ListBuilt(ctx context.Context) ([]Source, error)
}
