package chapters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Heading describes one chapter boundary found by Scan.
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

const (
	slugMaxLength = 80
	slugFallback  = "chapter"
)

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugHyphens  = regexp.MustCompile(`\s+`)
)

// Slugify derives an identifier fragment from heading text: lowercase,
// non-alphanumerics stripped, whitespace collapsed to hyphens, bounded
// length. Empty results fall back to a fixed placeholder.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugHyphens.ReplaceAllString(s, "-")
	if len(s) > slugMaxLength {
		s = s[:slugMaxLength]
	}
	if s == "" {
		return slugFallback
	}
	return s
}

// uniqueID resolves collisions by appending -1, -2, ... until the candidate
// is unused. Deterministic and dependent on assignment order.
func uniqueID(base string, used map[string]bool) string {
	id := base
	for k := 1; used[id]; k++ {
		id = fmt.Sprintf("%s-%d", base, k)
	}
	used[id] = true
	return id
}

// headingInfo is the scanner's working record for one heading. sel points
// into the parsed tree so Build can write markers back before serializing.
type headingInfo struct {
	Heading
	created int
	pos     int
	sel     *goquery.Selection
}

// Scan enumerates the chapter headings of the given markup in document
// order, assigning a slug-derived id to every heading that lacks one and
// writing assigned ids back into the markup. Re-scanning already-scanned
// markup yields the same ids and the same markup.
func Scan(markup string) ([]Heading, string, error) {
	doc, err := parseDoc(markup)
	if err != nil {
		return nil, "", err
	}
	infos := scanHeadings(doc)
	out, err := serializeDoc(doc)
	if err != nil {
		return nil, "", err
	}
	headings := make([]Heading, 0, len(infos))
	for _, info := range infos {
		headings = append(headings, info.Heading)
	}
	return headings, out, nil
}

// scanHeadings walks the parsed tree, assigns ids, and records each
// heading's creation-order marker (-1 when absent or not positive).
func scanHeadings(doc *goquery.Document) []*headingInfo {
	used := make(map[string]bool)
	var infos []*headingInfo

	doc.Find(headingSelector).Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		base, hadID := sel.Attr("id")
		if !hadID || base == "" {
			base = fmt.Sprintf("ch-%d-%s", i, Slugify(text))
		}
		id := uniqueID(base, used)
		sel.SetAttr("id", id)

		level := headingLevel(sel.Get(0))
		if level == 0 {
			level = 1
		}
		if text == "" {
			text = fmt.Sprintf("Chapter %d", i+1)
		}

		created := -1
		if raw, ok := sel.Attr(createdAttr); ok {
			if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && v > 0 {
				created = v
			}
		}

		infos = append(infos, &headingInfo{
			Heading: Heading{ID: id, Text: text, Level: level},
			created: created,
			pos:     i,
			sel:     sel,
		})
	})
	return infos
}
