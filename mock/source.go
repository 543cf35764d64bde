package mock

import (
	"context"

	"github.com/fwojciec/helpdex"
)

var _ helpdex.DocumentSource = (*DocumentSource)(nil)

// DocumentSource is a mock implementation of helpdex.DocumentSource.
type DocumentSource struct {
	ParsePagesFn func(ctx context.Context, source helpdex.Source, root string) ([]*helpdex.Page, error)
}

func (s *DocumentSource) ParsePages(ctx context.Context, source helpdex.Source, root string) ([]*helpdex.Page, error) {
	return s.ParsePagesFn(ctx, source, root)
}

var _ helpdex.TOCSource = (*TOCSource)(nil)

// TOCSource is a mock implementation of helpdex.TOCSource.
type TOCSource struct {
	ParseTOCFn      func(ctx context.Context, source helpdex.Source, root string) ([]*helpdex.TOCNode, error)
	ParseKeywordsFn func(ctx context.Context, source helpdex.Source, root string) (map[string][]string, error)
}

func (s *TOCSource) ParseTOC(ctx context.Context, source helpdex.Source, root string) ([]*helpdex.TOCNode, error) {
	return s.ParseTOCFn(ctx, source, root)
}

func (s *TOCSource) ParseKeywords(ctx context.Context, source helpdex.Source, root string) (map[string][]string, error) {
	return s.ParseKeywordsFn(ctx, source, root)
}
