// Package story parses a narrative markdown document into a global context
// block, an ordered list of page records, and character/environment entity
// definitions. Parsing operates on the goldmark block tree rather than
// line-oriented pattern matching so that section boundaries are explicit.
package story

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Page is one narrative page record. Number is the 1-based position in
// document order; page N+1 may reference the artifact of page N.
type Page struct {
	// Header is the full marker line, e.g. "## Page 1: The Landing".
	Header string
	// Title is the marker text without heading syntax.
	Title string
	// Content is the raw markdown between this marker and the next.
	Content string
	// Number is the 1-based document-order position.
	Number int
}

// Story is the parsed document.
type Story struct {
	// GlobalContext is everything before the first page marker.
	GlobalContext string
	Pages         []Page
	Entities      []Entity
}

// pageMarkerRe finds a "Page N" label anywhere in a heading title, so
// "## The Landing, Page 1" opens a page section just like "## Page 1".
var pageMarkerRe = regexp.MustCompile(`(?i)\bpage\s+\d+\b`)

// pageLabelRe anchors the label at the start of a standalone paragraph
// line; narrative prose mentioning a page number is not a boundary.
var pageLabelRe = regexp.MustCompile(`(?i)^[*_\s]*page\s+\d+\b`)

// block is a top-level node with its raw source span.
type block struct {
	node  ast.Node
	start int
	stop  int
}

// marker is a page boundary within the block list.
type marker struct {
	index int // position in blocks
	title string
	start int // offset of the marker line
	stop  int // offset just past the marker line
}

// Parse splits a narrative document into global context, pages, and
// entity definitions. A document with no page markers yields one
// synthetic page spanning the whole document and empty global context.
func Parse(source []byte) (*Story, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	blocks := collectBlocks(doc, source)
	markers := collectMarkers(blocks, source)

	s := &Story{}

	if len(markers) == 0 {
		content := strings.TrimSpace(string(source))
		s.Pages = []Page{{
			Header:  "Page 1",
			Title:   "Page 1",
			Content: content,
			Number:  1,
		}}
		s.Entities = extractEntities(blocks, nil, source)
		return s, nil
	}

	s.GlobalContext = strings.TrimSpace(string(source[:markers[0].start]))

	for i, m := range markers {
		end := len(source)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}

		s.Pages = append(s.Pages, Page{
			Header:  strings.TrimSpace(string(source[m.start:m.stop])),
			Title:   m.title,
			Content: strings.TrimSpace(string(source[m.stop:end])),
			Number:  i + 1,
		})
	}

	s.Entities = extractEntities(blocks, markers, source)
	return s, nil
}

func collectBlocks(doc ast.Node, source []byte) []block {
	var blocks []block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		start, stop, ok := nodeSpan(n, source)
		if !ok {
			continue
		}
		blocks = append(blocks, block{node: n, start: start, stop: stop})
	}
	return blocks
}

func collectMarkers(blocks []block, source []byte) []marker {
	var markers []marker
	for i, b := range blocks {
		title, ok := pageMarkerTitle(b, source)
		if !ok {
			continue
		}

		start := lineStart(source, b.start)
		markers = append(markers, marker{
			index: i,
			title: title,
			start: start,
			stop:  lineEnd(source, b.stop),
		})
	}
	return markers
}

// pageMarkerTitle reports whether a block opens a page section: a heading
// of level 1-3 whose title contains "Page N", or a single-line paragraph
// label such as "Page 3: Arrival".
func pageMarkerTitle(b block, source []byte) (string, bool) {
	switch n := b.node.(type) {
	case *ast.Heading:
		if n.Level > 3 {
			return "", false
		}
		title := nodeText(n, source)
		if pageMarkerRe.MatchString(title) {
			return title, true
		}
	case *ast.Paragraph:
		if n.Lines().Len() != 1 {
			return "", false
		}
		line := strings.TrimSpace(string(source[b.start:b.stop]))
		if pageLabelRe.MatchString(line) {
			return strings.Trim(line, "*_ \t"), true
		}
	}
	return "", false
}

// nodeSpan returns the raw source span covered by a node and its
// descendants, extended left to the start of its first line so heading
// markers and list bullets are included.
func nodeSpan(n ast.Node, source []byte) (int, int, bool) {
	start, stop := -1, -1

	var visit func(ast.Node)
	visit = func(node ast.Node) {
		if node.Type() == ast.TypeBlock {
			lines := node.Lines()
			for i := range lines.Len() {
				seg := lines.At(i)
				if start == -1 || seg.Start < start {
					start = seg.Start
				}
				if seg.Stop > stop {
					stop = seg.Stop
				}
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			visit(c)
		}
	}
	visit(n)

	if start == -1 {
		return 0, 0, false
	}
	return lineStart(source, start), stop, true
}

// nodeText joins the raw line segments of a block node.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		b.Write(source[seg.Start:seg.Stop])
	}
	return strings.TrimSpace(b.String())
}

func lineStart(source []byte, off int) int {
	for off > 0 && source[off-1] != '\n' {
		off--
	}
	return off
}

func lineEnd(source []byte, off int) int {
	for off < len(source) && source[off] != '\n' {
		off++
	}
	if off < len(source) {
		off++
	}
	return off
}
