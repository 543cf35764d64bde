// Package goquery implements parsing of extracted help archives: topic pages,
// the HHC table of contents and the HHK keyword index.
package goquery

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/helpdex"
)

// titleSelectors are tried in order; the first element with non-empty text
// wins. Falls back to the file name when none match.
var titleSelectors = []string{"h1", "title", ".title", "#title", "h2"}

// Ensure DocumentSource implements helpdex.DocumentSource.
var _ helpdex.DocumentSource = (*DocumentSource)(nil)

// DocumentSource parses topic pages from an extracted archive directory.
type DocumentSource struct {
	logger *slog.Logger
}

// NewDocumentSource creates a DocumentSource. A nil logger falls back to
// slog.Default.
func NewDocumentSource(logger *slog.Logger) *DocumentSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentSource{logger: logger}
}

// ParsePages walks the archive root and parses every .html/.htm file into a
// Page. A file that fails to parse is skipped with a warning; it never aborts
// the batch.
func (s *DocumentSource) ParsePages(ctx context.Context, source helpdex.Source, root string) ([]*helpdex.Page, error) {
	if source.DirName() == "" {
		return nil, helpdex.Errorf(helpdex.EINVALID, "unknown source %q", source)
	}

	var pages []*helpdex.Page
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !hasHTMLExt(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		page, err := s.parseTopicFile(source, path, rel)
		if err != nil {
			s.logger.Warn("skipping unparseable topic file",
				"source", source,
				"path", rel,
				"error", err,
			)
			return nil
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, helpdex.Errorf(helpdex.EINTERNAL, "failed to walk archive root %q: %v", root, err)
	}
	return pages, nil
}

func (s *DocumentSource) parseTopicFile(source helpdex.Source, path, rel string) (*helpdex.Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	html := string(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, helpdex.Errorf(helpdex.EINVALID, "failed to parse HTML: %v", err)
	}

	page := &helpdex.Page{
		ID:           helpdex.NewPageID(source, rel),
		Source:       source,
		Title:        extractTitle(doc, rel),
		Path:         helpdex.NormalizePath(rel),
		HTML:         html,
		Anchors:      extractAnchors(doc),
		OutboundRefs: extractOutboundRefs(doc, source),
		Metadata: helpdex.PageMetadata{
			HasCode:   doc.Find("code, pre").Length() > 0,
			HasTables: doc.Find("table").Length() > 0,
		},
	}
	// Text extraction mutates the document, so it runs last.
	page.Text = extractText(doc)
	page.Metadata.WordCount = len(strings.Fields(page.Text))
	return page, nil
}

func extractTitle(doc *goquery.Document, rel string) string {
	for _, sel := range titleSelectors {
		if title := strings.TrimSpace(doc.Find(sel).First().Text()); title != "" {
			return title
		}
	}
	base := filepath.Base(rel)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", " ")
}

// extractText returns whitespace-collapsed visible text with script, style
// and chrome elements removed. The removal mutates the document; callers must
// finish all other extraction first.
func extractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func extractAnchors(doc *goquery.Document) []string {
	var anchors []string
	seen := make(map[string]bool)
	for _, attr := range []string{"id", "name"} {
		doc.Find("[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
			name, ok := sel.Attr(attr)
			if !ok || name == "" || seen[name] {
				return
			}
			seen[name] = true
			anchors = append(anchors, name)
		})
	}
	return anchors
}

// extractOutboundRefs collects intra-archive link targets in document order,
// deduplicated. External schemes, anchor-only links and absolute paths are
// dropped; compiled-help store URLs are rewritten to their path part and
// fragments are stripped so targets resolve against archive paths.
func extractOutboundRefs(doc *goquery.Document, source helpdex.Source) []string {
	storePrefix := "mk:@msitstore:" + string(source) + ".chm::/"

	var refs []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, scheme := range []string{"http://", "https://", "mailto:", "ftp://"} {
			if strings.HasPrefix(lower, scheme) {
				return
			}
		}

		if strings.HasPrefix(lower, storePrefix) {
			href = href[len(storePrefix):]
		} else if strings.HasPrefix(href, "/") || strings.HasPrefix(href, `\`) {
			return
		}

		if i := strings.Index(href, "#"); i >= 0 {
			href = href[:i]
		}
		if href == "" || seen[href] {
			return
		}
		seen[href] = true
		refs = append(refs, href)
	})
	return refs
}

func hasHTMLExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm"
}
