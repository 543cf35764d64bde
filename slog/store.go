package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/helpdex"
)

// Ensure LoggingStore implements helpdex.IndexStore.
var _ helpdex.IndexStore = (*LoggingStore)(nil)

// LoggingStore wraps an IndexStore with save/load logging.
type LoggingStore struct {
	next   helpdex.IndexStore
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next helpdex.IndexStore, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

// SaveArtifacts delegates to the wrapped store and logs the outcome.
func (s *LoggingStore) SaveArtifacts(ctx context.Context, a *helpdex.IndexArtifacts) error {
	begin := time.Now()
	err := s.next.SaveArtifacts(ctx, a)
	if err != nil {
		s.logger.Error("index save failed",
			"source", a.Source,
			"duration", time.Since(begin),
			"error", err,
		)
		return err
	}
	s.logger.Info("saved index",
		"source", a.Source,
		"chunks", len(a.Chunks),
		"run_id", a.RunID,
		"duration", time.Since(begin),
	)
	return nil
}

// LoadArtifacts delegates to the wrapped store and logs the outcome.
func (s *LoggingStore) LoadArtifacts(ctx context.Context, source helpdex.Source) (*helpdex.IndexArtifacts, error) {
	begin := time.Now()
	a, err := s.next.LoadArtifacts(ctx, source)
	if err != nil {
		s.logger.Warn("index load failed",
			"source", source,
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	s.logger.Info("loaded index",
		"source", source,
		"chunks", len(a.Chunks),
		"run_id", a.RunID,
		"duration", time.Since(begin),
	)
	return a, nil
}

// ListBuilt delegates to the wrapped store.
func (s *LoggingStore) ListBuilt(ctx context.Context) ([]helpdex.Source, error) {
	return s.next.ListBuilt(ctx)
}
