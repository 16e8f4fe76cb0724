package export

import (
	"fmt"
	"io"
	"os"

	"github.com/fumiama/go-docx"

	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

// Font sizes in half-points, per OOXML conventions.
const (
	docxTitleSize   = "36"
	docxHeadingSize = "28"
	docxBodySize    = "24"
	docxMetaColor   = "808080"
)

// DOCX renders one work as a Word document. Each top-level chapter
// heading starts on a new page so printed books keep their structure.
func DOCX(w io.Writer, work *models.Work) error {
	blocks, err := contentBlocks(work.Content)
	if err != nil {
		return err
	}

	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(work.Title).Size(docxTitleSize).Bold()
	doc.AddParagraph().AddText(metaLine(work)).Italic().Color(docxMetaColor)
	doc.AddParagraph()

	seenHeading := false
	for _, b := range blocks {
		switch {
		case b.level > 0:
			if seenHeading {
				doc.AddParagraph().AddPageBreaks()
			}
			seenHeading = true
			run := doc.AddParagraph().AddText(b.text).Bold()
			if b.level <= 2 {
				run.Size(docxHeadingSize)
			}
		default:
			doc.AddParagraph().AddText(b.text).Size(docxBodySize)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("%w: writing DOCX for '%s': %w", utils.ErrExport, work.Title, err)
	}
	return nil
}

// WorkDOCX writes one work as a .docx file and returns its path.
func (e *Exporter) WorkDOCX(work *models.Work) (string, error) {
	path, err := e.outputPath(work.Title, ".docx")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	if err := DOCX(f, work); err != nil {
		return "", err
	}
	e.log.Infof("Exported '%s' to %s", work.Title, path)
	return path, nil
}
