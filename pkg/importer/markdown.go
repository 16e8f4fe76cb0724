package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"angelhub/pkg/chapters"
	"angelhub/pkg/models"
	"angelhub/pkg/sanitize"
	"angelhub/pkg/utils"
)

// Markdown imports one Markdown document as a new work named after the
// source. Markdown headings become chapter headings; a document with at
// least one imports as a book.
func (im *Importer) Markdown(r io.Reader, title string) (*models.Work, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading markdown source: %w", utils.ErrImport, err)
	}

	var buf bytes.Buffer
	if err := goldmark.New().Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("%w: converting markdown: %w", utils.ErrMarkdownConversion, err)
	}

	markup := sanitize.HTML(buf.String())
	idx, err := chapters.Build(markup)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(idx.HTML) == "" {
		return nil, fmt.Errorf("%w: markdown source contains no content", utils.ErrImport)
	}

	kind := models.KindPoem
	if len(idx.Toc) > 0 {
		kind = models.KindBook
	}
	work := &models.Work{
		Title:   title,
		Content: idx.HTML,
		Kind:    kind,
	}
	normalizeIncoming(work)
	if work.Title == "" {
		return nil, fmt.Errorf("%w: markdown import needs a title", utils.ErrImport)
	}

	if _, err := im.storeWork(work); err != nil {
		return nil, err
	}
	im.log.Infof("Imported %s '%s' from markdown", work.Kind, work.Title)
	return work, nil
}
