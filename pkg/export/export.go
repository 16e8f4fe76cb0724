// Package export renders stored works to interchange formats: JSON for
// backup, Markdown, DOCX, and PDF for finished documents.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

// Exporter writes export files under a single output directory.
type Exporter struct {
	dir string
	log *logrus.Entry
}

func New(dir string, logger *logrus.Entry) *Exporter {
	return &Exporter{dir: dir, log: logger}
}

// outputPath ensures the export directory exists and builds a safe
// filename from the work title.
func (e *Exporter) outputPath(title, ext string) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: cannot create export directory %s: %w", utils.ErrFilesystem, e.dir, err)
	}
	return filepath.Join(e.dir, utils.SanitizeFilename(title)+ext), nil
}

// block is one renderable unit of a document body. Level 0 is prose;
// levels 1-3 mirror the heading levels of the chapter model.
type block struct {
	level int
	text  string
}

// contentBlocks flattens a document body into renderable blocks. Nested
// markup inside a paragraph collapses to its plain text; empty nodes are
// dropped.
func contentBlocks(markup string) ([]block, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML for export: %w", utils.ErrParsing, err)
	}

	var blocks []block
	doc.Find("body").Children().Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		level := 0
		switch goquery.NodeName(sel) {
		case "h1":
			level = 1
		case "h2":
			level = 2
		case "h3":
			level = 3
		}
		blocks = append(blocks, block{level: level, text: text})
	})
	return blocks, nil
}

// metaLine renders the date and tag summary shown under a work's title.
func metaLine(work *models.Work) string {
	parts := []string{work.Date}
	if len(work.Tags) > 0 {
		parts = append(parts, strings.Join(work.Tags, ", "))
	}
	return strings.Join(parts, " · ")
}
