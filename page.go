package helpdex

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Page represents a single parsed topic page from an extracted help archive.
// Pages are immutable once produced by a DocumentSource.
type Page struct {
	ID           string       `json:"id"`
	Source       Source       `json:"source"`
	Title        string       `json:"title"`
	Path         string       `json:"path"` // normalized, relative to the archive root
	Text         string       `json:"text"`
	HTML         string       `json:"html"`
	Anchors      []string     `json:"anchors"`
	OutboundRefs []string     `json:"outboundRefs"`
	Metadata     PageMetadata `json:"metadata"`
}

// PageMetadata carries descriptive stats captured while parsing.
type PageMetadata struct {
	WordCount int  `json:"wordCount"`
	HasCode   bool `json:"hasCode"`
	HasTables bool `json:"hasTables"`
}

// Validate returns an error if the page contains invalid fields.
func (p *Page) Validate() error {
	if p.ID == "" {
		return Errorf(EINVALID, "page ID required")
	}
	if p.Source.DirName() == "" {
		return Errorf(EINVALID, "page source required")
	}
	if p.Path == "" {
		return Errorf(EINVALID, "page path required")
	}
	return nil
}

// NewPageID derives a deterministic page ID from the source and the
// normalized relative path. The ID is stable across ingestion runs and is
// the join key between chunks, anchors and the link graph.
func NewPageID(source Source, path string) string {
	h := xxhash.Sum64String(NormalizePath(path))
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(h >> (56 - 8*i))
	}
	return string(source) + "_" + hex.EncodeToString(b[:])
}

// NormalizePath canonicalizes an archive-relative path for matching:
// backslashes become forward slashes, leading slashes are stripped, and the
// result is lowercased so links resolve case-insensitively.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, `\`, "/")
	path = strings.TrimPrefix(path, "/")
	return strings.ToLower(path)
}

// TOCNode is one entry in the archive's table-of-contents tree. A node with
// an empty Path is navigation-only: it groups children without addressing a
// page itself.
type TOCNode struct {
	Title    string     `json:"title"`
	Path     string     `json:"path"`
	Children []*TOCNode `json:"children,omitempty"`
}

// DocumentSource produces Page records from an extracted archive directory.
// A failure to parse an individual file must not abort the batch: the
// implementation skips the file, surfaces a warning, and continues.
type DocumentSource interface {
	ParsePages(ctx context.Context, source Source, root string) ([]*Page, error)
}

// TOCSource parses the archive's navigation files.
type TOCSource interface {
	// ParseTOC parses the HHC contents file into a TOC tree.
	// A missing file yields an empty tree, not an error.
	ParseTOC(ctx context.Context, source Source, root string) ([]*TOCNode, error)

	// ParseKeywords parses the HHK index file into a term -> paths map.
	// A missing file yields an empty map, not an error.
	ParseKeywords(ctx context.Context, source Source, root string) (map[string][]string, error)
}
