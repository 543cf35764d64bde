package helpdex

import "fmt"

// Chunk is a bounded contiguous span of a page's content, sized for
// downstream retrieval and embedding limits. Chunks are created in one batch
// per page and are immutable afterwards; the hybrid index owns them once
// built.
type Chunk struct {
	ID          string        `json:"id"`
	Source      Source        `json:"source"`
	PageID      string        `json:"pageId"`
	Title       string        `json:"title"`
	Path        string        `json:"path"`
	Content     string        `json:"content"`
	HTML        string        `json:"html"`
	ChunkIndex  int           `json:"chunkIndex"`
	TotalChunks int           `json:"totalChunks"`
	StartOffset int           `json:"startOffset"`
	EndOffset   int           `json:"endOffset"`
	Metadata    ChunkMetadata `json:"metadata"`
}

// ChunkMetadata contains per-chunk stats and the anchors it serves.
type ChunkMetadata struct {
	WordCount int      `json:"wordCount"`
	CharCount int      `json:"charCount"`
	AnchorIDs []string `json:"anchorIds,omitempty"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.PageID == "" {
		return Errorf(EINVALID, "chunk page ID required")
	}
	if c.Content == "" {
		return Errorf(EINVALID, "chunk content required")
	}
	return nil
}

// ChunkID derives a chunk's ID from its page and position.
func ChunkID(pageID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", pageID, index)
}

// AnchorLocation records where a named anchor landed after chunking.
type AnchorLocation struct {
	ChunkID    string `json:"chunkId"`
	Offset     int    `json:"offset"` // position within the chunk's HTML fragment
	ChunkStart int    `json:"chunkStart"`
	ChunkEnd   int    `json:"chunkEnd"`
}

// AnchorMap maps "pageID#anchor" keys to their resolved chunk location.
// Several anchors may resolve into the same chunk.
type AnchorMap map[string]AnchorLocation

// AnchorKey builds the lookup key for an anchor on a page.
func AnchorKey(pageID, anchor string) string {
	return pageID + "#" + anchor
}

// Merge copies all entries of other into m, overwriting on collision.
// Callers merge per-page fragments into one run-level map during ingestion.
func (m AnchorMap) Merge(other AnchorMap) {
	for k, v := range other {
		m[k] = v
	}
}

// Chunker splits a page into ordered, overlapping, heading-aware chunks.
// The returned list is finalized: TotalChunks is set on every chunk and the
// caller must treat the chunks as immutable. The AnchorMap fragment covers
// only the given page.
type Chunker interface {
	ChunkPage(page *Page) ([]*Chunk, AnchorMap, error)
}
