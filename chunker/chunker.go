// Package chunker splits topic pages into overlapping, heading-aware chunks
// sized for embedding and retrieval.
package chunker

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/helpdex"
)

// Default chunk sizing, in estimated tokens.
const (
	DefaultTargetTokens   = 1000
	DefaultOverlapTokens  = 150
	DefaultMinChunkTokens = 200
)

// Config controls chunk sizing. Zero values fall back to the defaults.
type Config struct {
	// TargetTokens is the soft upper bound for a chunk. A single section
	// larger than the target is still placed whole into one chunk, so
	// chunks can exceed the target; that is expected, not a defect.
	TargetTokens int

	// OverlapTokens controls how much of a closed chunk's tail seeds the
	// next chunk.
	OverlapTokens int

	// MinChunkTokens is the minimum size for a chunk to be emitted.
	MinChunkTokens int

	// KeepTail emits a trailing buffer even when it falls below
	// MinChunkTokens. Off by default: short trailing fragments are
	// dropped rather than producing degenerate tiny chunks.
	KeepTail bool
}

// Ensure Chunker implements helpdex.Chunker at compile time.
var _ helpdex.Chunker = (*Chunker)(nil)

// Chunker is a heading-aware chunking engine. Given identical configuration
// and input it is fully deterministic.
type Chunker struct {
	target   int
	overlap  int
	min      int
	keepTail bool
}

// New creates a Chunker from the given config, applying defaults for zero
// values.
func New(cfg Config) *Chunker {
	c := &Chunker{
		target:   cfg.TargetTokens,
		overlap:  cfg.OverlapTokens,
		min:      cfg.MinChunkTokens,
		keepTail: cfg.KeepTail,
	}
	if c.target == 0 {
		c.target = DefaultTargetTokens
	}
	if c.overlap == 0 {
		c.overlap = DefaultOverlapTokens
	}
	if c.min == 0 {
		c.min = DefaultMinChunkTokens
	}
	return c
}

// section is a contiguous run of page content: one heading plus everything
// until the next heading, or a single block element when the page has no
// headings at all.
type section struct {
	text string
	html string
}

// ChunkPage splits a page into ordered chunks and returns them together with
// the page's anchor map fragment. The returned chunks are finalized
// (TotalChunks is set) and must be treated as immutable.
func (c *Chunker) ChunkPage(page *helpdex.Page) ([]*helpdex.Chunk, helpdex.AnchorMap, error) {
	if err := page.Validate(); err != nil {
		return nil, nil, err
	}

	sections, err := extractSections(page.HTML)
	if err != nil {
		return nil, nil, err
	}

	anchors := helpdex.AnchorMap{}
	var chunks []*helpdex.Chunk
	cur, curHTML := "", ""
	start := 0 // character offset into the produced chunk text stream

	for _, sec := range sections {
		if cur != "" && estimateTokens(cur+" "+sec.text) > c.target && estimateTokens(cur) >= c.min {
			chunks = append(chunks, c.newChunk(page, len(chunks), cur, curHTML, start, anchors))

			end := start + len(cur)
			seed := c.overlapSeed(cur)
			if seed != "" {
				cur = seed + " " + sec.text
				start = end - len(seed)
			} else {
				cur = sec.text
				start = end
			}
			curHTML = sec.html
			continue
		}

		if cur != "" {
			cur += " " + sec.text
			curHTML += sec.html
		} else {
			cur, curHTML = sec.text, sec.html
		}
	}

	if cur != "" && (c.keepTail || estimateTokens(cur) >= c.min) {
		chunks = append(chunks, c.newChunk(page, len(chunks), cur, curHTML, start, anchors))
	}

	for _, chunk := range chunks {
		chunk.TotalChunks = len(chunks)
	}
	return chunks, anchors, nil
}

// newChunk builds one chunk and records its anchors into the shared map.
func (c *Chunker) newChunk(page *helpdex.Page, index int, text, html string, start int, anchors helpdex.AnchorMap) *helpdex.Chunk {
	id := helpdex.ChunkID(page.ID, index)
	end := start + len(text)

	chunkAnchors := extractAnchors(html)
	anchorIDs := make([]string, 0, len(chunkAnchors))
	for _, a := range chunkAnchors {
		// Same id twice in one chunk: last write wins. Ids should be
		// unique per page so collisions are benign.
		anchors[helpdex.AnchorKey(page.ID, a.name)] = helpdex.AnchorLocation{
			ChunkID:    id,
			Offset:     a.offset,
			ChunkStart: start,
			ChunkEnd:   end,
		}
		anchorIDs = append(anchorIDs, a.name)
	}

	return &helpdex.Chunk{
		ID:          id,
		Source:      page.Source,
		PageID:      page.ID,
		Title:       page.Title,
		Path:        page.Path,
		Content:     text,
		HTML:        html,
		ChunkIndex:  index,
		StartOffset: start,
		EndOffset:   end,
		Metadata: helpdex.ChunkMetadata{
			WordCount: len(strings.Fields(text)),
			CharCount: len(text),
			AnchorIDs: anchorIDs,
		},
	}
}

// overlapSeed returns the trailing words of a closed chunk whose count
// corresponds to overlapTokens/4. This is a deliberately coarse word-count
// proxy, not a token-accurate measure, and must stay that way for size
// parity with previously built indexes.
func (c *Chunker) overlapSeed(text string) string {
	words := strings.Fields(text)
	n := c.overlap / 4
	if len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}

// estimateTokens approximates token count as one token per four characters,
// counted in code points so multi-byte text is not over-counted. Not a real
// tokenizer; every size decision in the chunker uses this same approximation.
func estimateTokens(text string) int {
	return len([]rune(text)) / 4
}

// extractSections segments the page HTML at heading boundaries. Each heading
// opens a section that captures all following non-heading block content
// until the next heading at any level. Content before the first heading
// belongs to no section and is skipped. Pages without headings degenerate to
// one section per block element.
func extractSections(html string) ([]section, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, helpdex.Errorf(helpdex.EINVALID, "failed to parse page HTML: %v", err)
	}

	var sections []section
	var cur *section
	hasHeadings := doc.Find("h1,h2,h3,h4,h5,h6").Length() > 0

	doc.Find("h1,h2,h3,h4,h5,h6,p,div,li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		outer, err := goquery.OuterHtml(sel)
		if err != nil {
			outer = ""
		}

		if isHeading(sel) {
			if cur != nil {
				sections = append(sections, *cur)
			}
			cur = &section{text: text, html: outer}
			return
		}

		if !hasHeadings {
			if text != "" {
				sections = append(sections, section{text: text, html: outer})
			}
			return
		}

		if cur != nil && text != "" {
			cur.text += " " + text
			cur.html += outer
		}
	})
	if cur != nil {
		sections = append(sections, *cur)
	}

	return sections, nil
}

func isHeading(sel *goquery.Selection) bool {
	if len(sel.Nodes) == 0 {
		return false
	}
	name := sel.Nodes[0].Data
	return len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6'
}

// anchorRef is a named anchor found in a chunk's HTML fragment.
type anchorRef struct {
	name   string
	offset int
}

// extractAnchors scans a chunk's HTML for elements carrying an id or name
// attribute and records the first-match position of each element's markup
// within the fragment. Elements whose serialized form cannot be located in
// the fragment are skipped.
func extractAnchors(html string) []anchorRef {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var refs []anchorRef
	for _, attr := range []string{"id", "name"} {
		doc.Find("[" + attr + "]").Each(func(_ int, sel *goquery.Selection) {
			name, ok := sel.Attr(attr)
			if !ok || name == "" {
				return
			}
			outer, err := goquery.OuterHtml(sel)
			if err != nil {
				return
			}
			pos := strings.Index(html, outer)
			if pos < 0 {
				return
			}
			refs = append(refs, anchorRef{name: name, offset: pos})
		})
	}
	return refs
}
