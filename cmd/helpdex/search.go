package main

import (
	"fmt"

	"github.com/fwojciec/helpdex"
	"github.com/fwojciec/helpdex/index"
	helpdexslog "github.com/fwojciec/helpdex/slog"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	source, err := helpdex.ParseSource(c.Source)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", helpdex.ErrorMessage(err))
		return err
	}

	artifacts, err := deps.Store.LoadArtifacts(deps.Ctx, source)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", helpdex.ErrorMessage(err))
		return err
	}
	h := index.New(deps.Embedder, index.Config{})
	if err := h.FromArtifacts(artifacts); err != nil {
		return err
	}

	searcher := helpdexslog.NewLoggingSearcher(h, deps.Logger)
	results, err := searcher.Search(deps.Ctx, c.Query, c.K)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", helpdex.ErrorMessage(err))
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results found.")
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(deps.Stdout, "%d. %s  (%s, chunk %d, score %.4f)\n", i+1, r.Title, r.Path, r.ChunkIndex, r.Score)
		fmt.Fprintf(deps.Stdout, "   id: %s\n", r.ChunkID)
		fmt.Fprintf(deps.Stdout, "   %s\n", r.Snippet)
	}
	return nil
}
