package mock

import (
	"context"

	"github.com/fwojciec/helpdex"
)

var _ helpdex.IndexStore = (*IndexStore)(nil)

// IndexStore is a mock implementation of helpdex.IndexStore.
type IndexStore struct {
	SaveArtifactsFn func(ctx context.Context, a *helpdex.IndexArtifacts) error
	LoadArtifactsFn func(ctx context.Context, source helpdex.Source) (*helpdex.IndexArtifacts, error)
	ListBuiltFn     func(ctx context.Context) ([]helpdex.Source, error)
}

func (s *IndexStore) SaveArtifacts(ctx context.Context, a *helpdex.IndexArtifacts) error {
	return s.SaveArtifactsFn(ctx, a)
}

func (s *IndexStore) LoadArtifacts(ctx context.Context, source helpdex.Source) (*helpdex.IndexArtifacts, error) {
	return s.LoadArtifactsFn(ctx, source)
}

func (s *IndexStore) ListBuilt(ctx context.Context) ([]helpdex.Source, error) {
	return s.ListBuiltFn(ctx)
}
