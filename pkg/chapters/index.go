package chapters

import (
	"sort"
	"strconv"
)

// Index is the externally visible table of contents for a document, paired
// with the markup after id and creation-marker backfill. The TOC order is
// the only ordering surfaced to callers; it follows creation markers, not
// document position.
type Index struct {
	Toc  []Heading `json:"toc"`
	HTML string    `json:"html"`
}

// Build scans the markup and produces its table of contents, ordered by
// ascending creation marker with document-scan order as tie-break.
//
// Headings without a positive creation marker are treated as born in their
// current document order: they receive sequence numbers starting at 0 in
// scan order, and missing markers are written back into the markup. This
// bakes first-seen order into creation history on the first build; markup
// reordered before that build is recorded in its reordered sequence.
//
// Build is idempotent: calling it twice on unchanged input yields
// byte-identical HTML and an identical TOC.
func Build(markup string) (Index, error) {
	doc, err := parseDoc(markup)
	if err != nil {
		return Index{}, err
	}

	infos := scanHeadings(doc)
	seq := 0
	for _, info := range infos {
		if info.created < 0 {
			info.created = seq
			seq++
			if _, ok := info.sel.Attr(createdAttr); !ok {
				info.sel.SetAttr(createdAttr, strconv.Itoa(info.created))
			}
		}
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].created != infos[j].created {
			return infos[i].created < infos[j].created
		}
		return infos[i].pos < infos[j].pos
	})

	out, err := serializeDoc(doc)
	if err != nil {
		return Index{}, err
	}

	idx := Index{HTML: out, Toc: make([]Heading, 0, len(infos))}
	for _, info := range infos {
		idx.Toc = append(idx.Toc, info.Heading)
	}
	return idx, nil
}
