package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/helpdex"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Store    helpdex.IndexStore
	Topics   helpdex.DocumentSource
	TOC      helpdex.TOCSource
	Embedder helpdex.Embedder
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Ingest    IngestCmd    `cmd:"" help:"Parse an extracted help archive and build its search index"`
	Search    SearchCmd    `cmd:"" help:"Search a built index from the command line"`
	Neighbors NeighborsCmd `cmd:"" help:"Show a page's table-of-contents and see-also relations"`
	Sources   SourcesCmd   `cmd:"" help:"List known help archives and their index status"`
	Serve     ServeCmd     `cmd:"" help:"Serve query tools over the Model Context Protocol on stdio"`
}

// IngestCmd is the "ingest" subcommand.
type IngestCmd struct {
	Source string `arg:"" help:"Help archive to ingest (e.g. arxmgd)"`
	Root   string `arg:"" type:"existingdir" help:"Directory containing the extracted archive"`

	TargetTokens   int     `default:"1000" help:"Soft chunk size limit in estimated tokens"`
	OverlapTokens  int     `default:"150" help:"Chunk overlap in estimated tokens"`
	MinChunkTokens int     `default:"200" help:"Minimum chunk size in estimated tokens"`
	KeepTail       bool    `help:"Keep trailing content below the minimum chunk size"`
	Model          string  `help:"Embedding model (defaults to gemini-embedding-001)"`
	RPS            float64 `name:"rps" default:"2" help:"Embedding request rate limit per second"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Source string `arg:"" help:"Help archive to search"`
	Query  string `arg:"" help:"Search query"`

	K     int     `short:"k" default:"5" help:"Number of results"`
	Model string  `help:"Embedding model (must match the built index)"`
	RPS   float64 `name:"rps" default:"2" help:"Embedding request rate limit per second"`
}

// NeighborsCmd is the "neighbors" subcommand.
type NeighborsCmd struct {
	Source string `arg:"" help:"Help archive the page belongs to"`
	Page   string `arg:"" help:"Page ID, or an archive path with --by-path"`
	ByPath bool   `help:"Treat the page argument as an archive path instead of a page ID"`
}

// SourcesCmd is the "sources" subcommand.
type SourcesCmd struct{}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Model string  `help:"Embedding model (must match the built indexes)"`
	RPS   float64 `name:"rps" default:"2" help:"Embedding request rate limit per second"`
}
