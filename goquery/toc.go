package goquery

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/helpdex"
)

// Ensure TOCSource implements helpdex.TOCSource.
var _ helpdex.TOCSource = (*TOCSource)(nil)

// TOCSource parses HHC contents and HHK keyword files. Both are legacy
// sitemap-flavored HTML: list items carrying an <object type="text/sitemap">
// with Name/Local params. The HTML parser repairs their unclosed tags, which
// is exactly why this is not an XML parse.
type TOCSource struct {
	// ContentsFile and KeywordsFile are file names relative to the archive
	// root. Zero values mean the conventional <source>.hhc / <source>.hhk.
	ContentsFile string
	KeywordsFile string
}

// ParseTOC parses the HHC contents file into a TOC tree. A missing file
// yields an empty tree.
func (s *TOCSource) ParseTOC(ctx context.Context, source helpdex.Source, root string) ([]*helpdex.TOCNode, error) {
	doc, ok, err := s.openSitemap(source, root, s.ContentsFile, ".hhc")
	if err != nil || !ok {
		return nil, err
	}

	var nodes []*helpdex.TOCNode
	// Top-level entries are the list items not nested under another item.
	doc.Find("li").Each(func(_ int, sel *goquery.Selection) {
		if sel.ParentsFiltered("li").Length() > 0 {
			return
		}
		if node := parseTOCItem(sel); node != nil {
			nodes = append(nodes, node)
		}
	})
	return nodes, nil
}

// ParseKeywords parses the HHK index file into a term -> normalized paths
// map. A missing file yields an empty map.
func (s *TOCSource) ParseKeywords(ctx context.Context, source helpdex.Source, root string) (map[string][]string, error) {
	keywords := make(map[string][]string)
	doc, ok, err := s.openSitemap(source, root, s.KeywordsFile, ".hhk")
	if err != nil || !ok {
		return keywords, err
	}

	doc.Find("li").Each(func(_ int, sel *goquery.Selection) {
		term, path := sitemapParams(sel)
		term = strings.TrimSpace(term)
		path = strings.TrimSpace(path)
		if term == "" || path == "" {
			return
		}
		path = helpdex.NormalizePath(path)
		for _, existing := range keywords[term] {
			if existing == path {
				return
			}
		}
		keywords[term] = append(keywords[term], path)
	})
	return keywords, nil
}

// openSitemap reads and parses a sitemap file, reporting ok=false when the
// file does not exist.
func (s *TOCSource) openSitemap(source helpdex.Source, root, name, ext string) (*goquery.Document, bool, error) {
	if source.DirName() == "" {
		return nil, false, helpdex.Errorf(helpdex.EINVALID, "unknown source %q", source)
	}
	if name == "" {
		name = string(source) + ext
	}

	raw, err := os.ReadFile(filepath.Join(root, name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, helpdex.Errorf(helpdex.EINTERNAL, "failed to read %q: %v", name, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return nil, false, helpdex.Errorf(helpdex.EINVALID, "failed to parse %q: %v", name, err)
	}
	return doc, true, nil
}

// parseTOCItem parses one list item and its nested list into a TOC node.
// Items without a sitemap object keep their text as the title and act as
// navigation-only grouping nodes.
func parseTOCItem(sel *goquery.Selection) *helpdex.TOCNode {
	title, path := sitemapParams(sel)
	if title == "" {
		clone := sel.Clone()
		clone.Find("ul").Remove()
		title = strings.TrimSpace(clone.Text())
	}
	if path != "" {
		path = helpdex.NormalizePath(path)
	}

	node := &helpdex.TOCNode{Title: title, Path: path}
	sel.Find("ul").First().ChildrenFiltered("li").Each(func(_ int, child *goquery.Selection) {
		if c := parseTOCItem(child); c != nil {
			node.Children = append(node.Children, c)
		}
	})

	if node.Title == "" && node.Path == "" && len(node.Children) == 0 {
		return nil
	}
	return node
}

// sitemapParams returns the Name and Local param values of the item's own
// sitemap object, if any. Objects belonging to nested child items are
// ignored so grouping entries never inherit a child's target.
func sitemapParams(sel *goquery.Selection) (name, local string) {
	obj := sel.Find(`object[type="text/sitemap"]`).FilterFunction(func(_ int, o *goquery.Selection) bool {
		return o.ParentsFiltered("li").First().IsSelection(sel)
	}).First()
	obj.Find("param").Each(func(_ int, p *goquery.Selection) {
		key, _ := p.Attr("name")
		value, _ := p.Attr("value")
		switch strings.ToLower(key) {
		case "name":
			if name == "" {
				name = value
			}
		case "local":
			if local == "" {
				local = value
			}
		}
	})
	return name, local
}
