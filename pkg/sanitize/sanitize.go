// Package sanitize filters incoming rich-text bodies before they are
// stored or spliced into a document.
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

// buildPolicy extends bluemonday's user-generated-content baseline with the
// attributes the chapter model depends on. Heading ids and creation markers
// must survive sanitization or the table of contents loses its anchors.
func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id", "data-created").OnElements("h1", "h2", "h3")
	p.AllowAttrs("class").OnElements("p", "span", "blockquote")
	return p
}

// HTML returns markup with scripts, event handlers, and disallowed tags
// stripped. Safe structural markup and chapter markers pass through.
func HTML(markup string) string {
	return policy.Sanitize(markup)
}
