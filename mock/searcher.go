package mock

import (
	"context"

	"github.com/fwojciec/helpdex"
)

var _ helpdex.Searcher = (*Searcher)(nil)

// Searcher is a mock implementation of helpdex.Searcher.
type Searcher struct {
	SearchFn func(ctx context.Context, query string, k int) ([]helpdex.SearchResult, error)
}

func (s *Searcher) Search(ctx context.Context, query string, k int) ([]helpdex.SearchResult, error) {
	return s.SearchFn(ctx, query, k)
}
