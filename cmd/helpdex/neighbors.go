package main

import (
	"fmt"

	"github.com/fwojciec/helpdex"
)

// Run executes the neighbors command. It works directly off the persisted
// artifacts: relation listing needs no embedder.
func (c *NeighborsCmd) Run(deps *Dependencies) error {
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

	pageID := c.Page
	if c.ByPath {
		pageID = helpdex.NewPageID(source, c.Page)
	}

	titles := make(map[string]string)
	for _, chunk := range artifacts.Chunks {
		if chunk.ChunkIndex == 0 {
			titles[chunk.PageID] = fmt.Sprintf("%s (%s)", chunk.Title, chunk.Path)
		}
	}
	describe := func(id string) string {
		if title, ok := titles[id]; ok {
			return fmt.Sprintf("%s  %s", id, title)
		}
		return id
	}

	n := artifacts.Graph.GetNeighbors(pageID)
	if n.Parent == "" && len(n.Children) == 0 && len(n.SeeAlso) == 0 {
		fmt.Fprintln(deps.Stdout, "No related pages found.")
		return nil
	}

	if n.Parent != "" {
		fmt.Fprintf(deps.Stdout, "Parent:\n  %s\n", describe(n.Parent))
	}
	if len(n.Children) > 0 {
		fmt.Fprintln(deps.Stdout, "Children:")
		for _, id := range n.Children {
			fmt.Fprintf(deps.Stdout, "  %s\n", describe(id))
		}
	}
	if len(n.SeeAlso) > 0 {
		fmt.Fprintln(deps.Stdout, "See also:")
		for _, id := range n.SeeAlso {
			fmt.Fprintf(deps.Stdout, "  %s\n", describe(id))
		}
	}
	return nil
}
