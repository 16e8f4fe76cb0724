// Package chapters implements the chapter-aware document model: a work's
// rich-text body is treated as an ordered sequence of sections delimited by
// h1/h2/h3 headings, each carrying a stable id and a creation-order marker.
// All operations parse the serialized markup, edit the tree in memory, and
// return re-serialized markup; nothing outside the edited section changes.
package chapters

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// headingSelector matches the three recognized chapter levels. Deeper
// headings (h4-h6) are ordinary content and never form section boundaries.
const headingSelector = "h1, h2, h3"

// createdAttr is the data attribute carrying a heading's creation-order
// marker. Headings without one are backfilled in scan order by Build.
const createdAttr = "data-created"

// parseDoc parses a serialized markup fragment. net/html wraps fragments in
// html/head/body; serializeDoc unwraps them again.
func parseDoc(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

// serializeDoc returns the body's inner markup, trimmed of surrounding
// whitespace.
func serializeDoc(doc *goquery.Document) (string, error) {
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// headingLevel returns 1-3 for h1-h3 element nodes and 0 for anything else.
func headingLevel(n *html.Node) int {
	if n == nil || n.Type != html.ElementNode {
		return 0
	}
	switch n.Data {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	}
	return 0
}

// renderNode serializes a single node, markup included.
func renderNode(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// sectionSpan collects the sibling nodes forming a heading's body: everything
// after the heading up to (not including) the next heading of equal or
// shallower level, or the end of the parent. Text and comment siblings are
// part of the span; heading detection is element-level only.
func sectionSpan(heading *html.Node, level int) []*html.Node {
	var span []*html.Node
	for n := heading.NextSibling; n != nil; n = n.NextSibling {
		if l := headingLevel(n); l > 0 && l <= level {
			break
		}
		span = append(span, n)
	}
	return span
}

// findHeading locates the heading element with the given id. Lookup is by
// exact attribute comparison rather than a compiled selector, so ids with
// characters unsafe in selector syntax need no escaping.
func findHeading(doc *goquery.Document, chapterID string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(headingSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if id, ok := sel.Attr("id"); ok && id == chapterID {
			found = sel
			return false
		}
		return true
	})
	return found
}

// parseBodyFragment parses markup as body-context nodes, preserving order.
func parseBodyFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(markup), ctx)
}
