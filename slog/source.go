package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/helpdex"
)

// Ensure LoggingDocumentSource implements helpdex.DocumentSource.
var _ helpdex.DocumentSource = (*LoggingDocumentSource)(nil)

// LoggingDocumentSource wraps a DocumentSource with batch-level logging.
type LoggingDocumentSource struct {
	next   helpdex.DocumentSource
	logger *slog.Logger
}

// NewLoggingDocumentSource creates a new LoggingDocumentSource.
func NewLoggingDocumentSource(next helpdex.DocumentSource, logger *slog.Logger) *LoggingDocumentSource {
	return &LoggingDocumentSource{next: next, logger: logger}
}

// ParsePages delegates to the wrapped source and logs the batch outcome.
func (s *LoggingDocumentSource) ParsePages(ctx context.Context, source helpdex.Source, root string) ([]*helpdex.Page, error) {
	begin := time.Now()
	pages, err := s.next.ParsePages(ctx, source, root)
	if err != nil {
		s.logger.Error("page parsing failed",
			"source", source,
			"root", root,
			"duration", time.Since(begin),
			"error", err,
		)
		return nil, err
	}
	s.logger.Info("parsed pages",
		"source", source,
		"pages", len(pages),
		"duration", time.Since(begin),
	)
	return pages, nil
}
