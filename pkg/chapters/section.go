package chapters

import (
	"strings"

	"golang.org/x/net/html"
)

// Section is one extracted chapter: its heading text, heading level, and
// the serialized markup of everything between the heading and the next
// heading of equal or shallower level.
type Section struct {
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

// Extract returns the section for the given chapter id. When the id is not
// present the whole input comes back as content with an empty title and
// level 1; callers must treat that shape as "chapter not found", not as a
// valid single-chapter result.
func Extract(markup, chapterID string) (Section, error) {
	doc, err := parseDoc(markup)
	if err != nil {
		return Section{}, err
	}
	heading := findHeading(doc, chapterID)
	if heading == nil {
		return Section{Title: "", Level: 1, Content: markup}, nil
	}

	node := heading.Get(0)
	level := headingLevel(node)
	if level == 0 {
		level = 1
	}

	var parts []string
	for _, n := range sectionSpan(node, level) {
		parts = append(parts, renderNode(n))
	}
	return Section{
		Title:   strings.TrimSpace(heading.Text()),
		Level:   level,
		Content: strings.Join(parts, ""),
	}, nil
}

// Splice replaces the chapter's heading text and entire body span with
// newTitle and the parsed nodes of newBody, leaving everything outside the
// span untouched, and returns the updated whole-document markup. An empty
// newTitle keeps the existing heading text. When the id is not present the
// new body is returned verbatim: the edit degrades to replacing the whole
// document rather than silently dropping it.
func Splice(markup, chapterID, newTitle, newBody string) (string, error) {
	doc, err := parseDoc(markup)
	if err != nil {
		return "", err
	}
	heading := findHeading(doc, chapterID)
	if heading == nil {
		if newBody != "" {
			return newBody, nil
		}
		return markup, nil
	}

	node := heading.Get(0)
	level := headingLevel(node)
	if level == 0 {
		level = 1
	}

	if newTitle != "" {
		setNodeText(node, newTitle)
	}

	parent := node.Parent
	for _, n := range sectionSpan(node, level) {
		parent.RemoveChild(n)
	}

	body, err := parseBodyFragment(newBody)
	if err != nil {
		return "", err
	}
	after := node.NextSibling
	for _, n := range body {
		parent.InsertBefore(n, after)
	}

	return serializeDoc(doc)
}

// Delete removes the chapter's heading and its entire body span, the same
// span boundary Splice uses, and returns the updated markup. An unknown id
// returns the input unchanged, so deleting twice is idempotent.
func Delete(markup, chapterID string) (string, error) {
	doc, err := parseDoc(markup)
	if err != nil {
		return "", err
	}
	heading := findHeading(doc, chapterID)
	if heading == nil {
		return markup, nil
	}

	node := heading.Get(0)
	level := headingLevel(node)
	if level == 0 {
		level = 1
	}

	parent := node.Parent
	for _, n := range sectionSpan(node, level) {
		parent.RemoveChild(n)
	}
	parent.RemoveChild(node)

	return serializeDoc(doc)
}

// setNodeText replaces an element's children with a single text node.
func setNodeText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
