package mock

import "github.com/fwojciec/helpdex"

var _ helpdex.Chunker = (*Chunker)(nil)

// Chunker is a mock implementation of helpdex.Chunker.
type Chunker struct {
	ChunkPageFn func(page *helpdex.Page) ([]*helpdex.Chunk, helpdex.AnchorMap, error)
}

func (c *Chunker) ChunkPage(page *helpdex.Page) ([]*helpdex.Chunk, helpdex.AnchorMap, error) {
	return c.ChunkPageFn(page)
}
