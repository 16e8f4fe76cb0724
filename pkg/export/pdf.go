package export

import (
	"fmt"
	"io"
	"os"

	"github.com/go-pdf/fpdf"

	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

// PDF renders one work as an A4 PDF: title page header, meta line, then
// the body with chapter headings set larger. Core fonts cover Latin-1;
// the translator maps UTF-8 input onto that range.
func PDF(w io.Writer, work *models.Work) error {
	blocks, err := contentBlocks(work.Content)
	if err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(work.Title, true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(work.Title), "", "L", false)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(128, 128, 128)
	pdf.MultiCell(0, 5, tr(metaLine(work)), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	seenHeading := false
	for _, b := range blocks {
		switch {
		case b.level > 0:
			if seenHeading {
				pdf.AddPage()
			}
			seenHeading = true
			size := 14.0
			if b.level == 1 {
				size = 16.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 8, tr(b.text), "", "L", false)
			pdf.Ln(2)
		default:
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, tr(b.text), "", "L", false)
			pdf.Ln(2)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("%w: writing PDF for '%s': %w", utils.ErrExport, work.Title, err)
	}
	return nil
}

// WorkPDF writes one work as a .pdf file and returns its path.
func (e *Exporter) WorkPDF(work *models.Work) (string, error) {
	path, err := e.outputPath(work.Title, ".pdf")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	if err := PDF(f, work); err != nil {
		return "", err
	}
	e.log.Infof("Exported '%s' to %s", work.Title, path)
	return path, nil
}
