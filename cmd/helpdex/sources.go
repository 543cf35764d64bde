package main

import (
	"fmt"

	"github.com/fwojciec/helpdex"
)

// Run executes the sources command.
func (c *SourcesCmd) Run(deps *Dependencies) error {
	built, err := deps.Store.ListBuilt(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", helpdex.ErrorMessage(err))
		return err
	}
	builtSet := make(map[helpdex.Source]bool, len(built))
	for _, source := range built {
		builtSet[source] = true
	}

	for _, source := range helpdex.Sources() {
		status := "not built"
		if builtSet[source] {
			status = "built"
		}
		fmt.Fprintf(deps.Stdout, "%-12s %s\n", source, status)
	}
	return nil
}
