package helpdex

import (
	"path"
	"strings"
)

// Neighbors describes one page's edges in the link graph: its hierarchical
// parent and children from the table of contents, and associative "see also"
// targets from the page's own outbound references.
type Neighbors struct {
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
	SeeAlso  []string `json:"seeAlso,omitempty"`
}

// clone returns a deep value copy so callers can't mutate stored edges.
func (n *Neighbors) clone() Neighbors {
	out := Neighbors{Parent: n.Parent}
	out.Children = append(out.Children, n.Children...)
	out.SeeAlso = append(out.SeeAlso, n.SeeAlso...)
	return out
}

// LinkGraph maps page IDs to their edges. It is built wholesale during
// ingestion and read-only while serving.
type LinkGraph map[string]*Neighbors

// GetNeighbors returns a value copy of the stored edges, or an empty record
// for an unknown ID. "No graph entry" is valid for orphaned pages, so this
// never errors.
func (g LinkGraph) GetNeighbors(pageID string) Neighbors {
	if n, ok := g[pageID]; ok {
		return n.clone()
	}
	return Neighbors{}
}

// Roots returns the IDs of pages with no parent, in lexicographic order
// within the iteration (callers sort if they need stable output).
func (g LinkGraph) Roots() []string {
	var roots []string
	for id, n := range g {
		if n.Parent == "" {
			roots = append(roots, id)
		}
	}
	return roots
}

// BuildLinkGraph resolves a TOC tree and per-page outbound references into a
// link graph keyed by page ID.
//
// TOC nodes whose path does not resolve to a page are transparent: their
// children are re-parented to the nearest resolvable ancestor instead of
// being dropped, preserving hierarchy depth across navigation-only nodes.
// Outbound references resolve exact-first, then relative to the referencing
// page's directory, then both again with .html/.htm appended when the
// reference lacks an extension. Unresolved references and self-references
// are dropped silently.
func BuildLinkGraph(toc []*TOCNode, pages []*Page) LinkGraph {
	graph := make(LinkGraph, len(pages))
	pathToID := make(map[string]string, len(pages))
	for _, page := range pages {
		pathToID[NormalizePath(page.Path)] = page.ID
		graph[page.ID] = &Neighbors{}
	}

	for _, node := range toc {
		addTOCNode(graph, pathToID, node, "")
	}

	for _, page := range pages {
		entry := graph[page.ID]
		for _, ref := range page.OutboundRefs {
			targetID := resolveRef(pathToID, ref, page.Path)
			if targetID == "" || targetID == page.ID {
				continue
			}
			if !contains(entry.SeeAlso, targetID) {
				entry.SeeAlso = append(entry.SeeAlso, targetID)
			}
		}
	}

	return graph
}

// addTOCNode walks the TOC depth-first, threading the nearest resolved
// ancestor's page ID through transparent nodes.
func addTOCNode(graph LinkGraph, pathToID map[string]string, node *TOCNode, parentID string) {
	pageID := ""
	if node.Path != "" {
		pageID = pathToID[NormalizePath(node.Path)]
	}
	if pageID == "" {
		// Transparent node: children keep the current ancestor.
		for _, child := range node.Children {
			addTOCNode(graph, pathToID, child, parentID)
		}
		return
	}

	if parentID != "" {
		entry := graph[pageID]
		// First resolution wins if the page appears in the TOC twice;
		// re-parenting would break parent/children back-reference
		// consistency.
		if entry.Parent == "" {
			entry.Parent = parentID
			parent := graph[parentID]
			if !contains(parent.Children, pageID) {
				parent.Children = append(parent.Children, pageID)
			}
		}
	}

	for _, child := range node.Children {
		addTOCNode(graph, pathToID, child, pageID)
	}
}

// resolveRef resolves an outbound reference to a page ID, or "" if it points
// outside the corpus. External and dead links are expected, not errors.
func resolveRef(pathToID map[string]string, ref, fromPath string) string {
	candidates := []string{NormalizePath(ref)}

	fromDir := path.Dir(NormalizePath(fromPath))
	if fromDir != "." {
		candidates = append(candidates, path.Clean(fromDir+"/"+NormalizePath(ref)))
	} else {
		candidates = append(candidates, path.Clean(NormalizePath(ref)))
	}

	if !hasHTMLExt(ref) {
		base := len(candidates)
		for _, ext := range []string{".html", ".htm"} {
			for i := 0; i < base; i++ {
				candidates = append(candidates, candidates[i]+ext)
			}
		}
	}

	for _, c := range candidates {
		if id, ok := pathToID[c]; ok {
			return id
		}
	}
	return ""
}

func hasHTMLExt(ref string) bool {
	ref = strings.ToLower(ref)
	return strings.HasSuffix(ref, ".html") || strings.HasSuffix(ref, ".htm")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
