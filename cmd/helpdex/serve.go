package main

import (
	helpdexmcp "github.com/fwojciec/helpdex/mcp"
)

// Run executes the serve command: an MCP server on stdio that loads index
// snapshots lazily per source.
func (c *ServeCmd) Run(deps *Dependencies) error {
	server := helpdexmcp.NewServer(deps.Store, deps.Embedder, version, deps.Logger)
	deps.Logger.Info("serving MCP on stdio", "version", version)
	return server.Run(deps.Ctx)
}
