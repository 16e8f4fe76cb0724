package chapters

import (
	"fmt"
	"html"
	"strings"
)

// newChapterPrefix marks ids minted by Create, keeping them disjoint from
// the scanner's positional ch-<n>- ids.
const newChapterPrefix = "ch-new-"

// Create appends a new level-2 chapter heading with an empty body to the
// end of the document and returns the updated markup plus the new chapter's
// id. The creation-order marker is an explicit per-document counter (one
// past the highest marker in use), so ordering never depends on clock
// resolution. A blank title is a no-op: the markup comes back unchanged
// with an empty id.
func Create(markup, title string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return markup, "", nil
	}

	doc, err := parseDoc(markup)
	if err != nil {
		return "", "", err
	}
	infos := scanHeadings(doc)

	used := make(map[string]bool, len(infos))
	next := len(infos)
	for _, info := range infos {
		used[info.ID] = true
		if info.created >= next {
			next = info.created + 1
		}
	}
	// Markers must stay positive: Build reads zero as "unmarked".
	if next < 1 {
		next = 1
	}
	id := uniqueID(newChapterPrefix+Slugify(title), used)

	base, err := serializeDoc(doc)
	if err != nil {
		return "", "", err
	}
	heading := fmt.Sprintf(`<h2 id="%s" %s="%d">%s</h2>`, id, createdAttr, next, html.EscapeString(title))
	return base + heading, id, nil
}
