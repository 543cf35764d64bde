// Package slog provides logging decorators for helpdex services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/helpdex"
)

// Ensure LoggingSearcher implements helpdex.Searcher.
var _ helpdex.Searcher = (*LoggingSearcher)(nil)

// LoggingSearcher wraps a Searcher with per-query logging.
type LoggingSearcher struct {
	next   helpdex.Searcher
	logger *slog.Logger
}

// NewLoggingSearcher creates a new LoggingSearcher.
func NewLoggingSearcher(next helpdex.Searcher, logger *slog.Logger) *LoggingSearcher {
	return &LoggingSearcher{next: next, logger: logger}
}

// Search delegates to the wrapped searcher and logs the outcome.
func (s *LoggingSearcher) Search(ctx context.Context, query string, k int) ([]helpdex.SearchResult, error) {
	begin := time.Now()
	results, err := s.next.Search(ctx, query, k)
	if err != nil {
		s.logger.Error("search failed",
			"query", query,
			"k", k,
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	s.logger.Info("search",
		"query", query,
		"k", k,
		"results", len(results),
		"duration", time.Since(begin),
	)
	return results, nil
}
