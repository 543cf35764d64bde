package main

import (
	"fmt"

	"github.com/fwojciec/helpdex"
	"github.com/fwojciec/helpdex/chunker"
	"github.com/fwojciec/helpdex/index"
	"github.com/google/uuid"
)

// Run executes the ingest command: parse the archive, chunk it, build the
// hybrid index and the link graph, and atomically replace the persisted
// artifacts for the source.
func (c *IngestCmd) Run(deps *Dependencies) error {
	source, err := helpdex.ParseSource(c.Source)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", helpdex.ErrorMessage(err))
		return err
	}

	toc, err := deps.TOC.ParseTOC(deps.Ctx, source, c.Root)
	if err != nil {
		return err
	}
	keywords, err := deps.TOC.ParseKeywords(deps.Ctx, source, c.Root)
	if err != nil {
		return err
	}
	pages, err := deps.Topics.ParsePages(deps.Ctx, source, c.Root)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return helpdex.Errorf(helpdex.EINVALID, "no topic pages found under %q", c.Root)
	}

	ch := chunker.New(chunker.Config{
		TargetTokens:   c.TargetTokens,
		OverlapTokens:  c.OverlapTokens,
		MinChunkTokens: c.MinChunkTokens,
		KeepTail:       c.KeepTail,
	})

	anchors := helpdex.AnchorMap{}
	var chunks []*helpdex.Chunk
	for _, page := range pages {
		pageChunks, pageAnchors, err := ch.ChunkPage(page)
		if err != nil {
			deps.Logger.Warn("skipping page that failed to chunk",
				"source", source,
				"path", page.Path,
				"error", err,
			)
			continue
		}
		chunks = append(chunks, pageChunks...)
		anchors.Merge(pageAnchors)
	}

	graph := helpdex.BuildLinkGraph(toc, pages)

	h := index.New(deps.Embedder, index.Config{})
	runID := uuid.New().String()
	if err := h.Build(deps.Ctx, source, runID, chunks, anchors, graph, resolveKeywordPages(keywords, pages)); err != nil {
		return err
	}
	if err := deps.Store.SaveArtifacts(deps.Ctx, h.Artifacts()); err != nil {
		return err
	}

	fmt.Fprintf(deps.Stdout, "Ingested %s: %d pages, %d chunks, %d anchors, %d keyword terms (run %s)\n",
		source, len(pages), len(chunks), len(anchors), len(keywords), runID)
	return nil
}

// resolveKeywordPages converts the keyword index's term -> paths map into a
// term -> page IDs map. Paths that resolve to no parsed page are dropped; a
// term whose every path is dead disappears entirely.
func resolveKeywordPages(keywords map[string][]string, pages []*helpdex.Page) map[string][]string {
	if len(keywords) == 0 {
		return nil
	}
	pathToID := make(map[string]string, len(pages))
	for _, page := range pages {
		pathToID[helpdex.NormalizePath(page.Path)] = page.ID
	}

	resolved := make(map[string][]string, len(keywords))
	for term, paths := range keywords {
		var ids []string
		for _, path := range paths {
			if id, ok := pathToID[helpdex.NormalizePath(path)]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			resolved[term] = ids
		}
	}
	return resolved
}
