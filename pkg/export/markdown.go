package export

import (
	"fmt"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

// Markdown renders one work as a Markdown document: H1 title, a meta
// line, then the converted body. Chapter headings inside the body come
// through as Markdown headings.
func Markdown(work *models.Work) (string, error) {
	converter := md.NewConverter("", true, nil)
	body, err := converter.ConvertString(work.Content)
	if err != nil {
		return "", fmt.Errorf("%w: converting '%s' to markdown: %w", utils.ErrMarkdownConversion, work.Title, err)
	}

	var sb strings.Builder
	sb.WriteString("# " + work.Title + "\n\n")
	sb.WriteString("*" + metaLine(work) + "*\n\n")
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String(), nil
}

// WorkMarkdown writes one work as a .md file and returns its path.
func (e *Exporter) WorkMarkdown(work *models.Work) (string, error) {
	content, err := Markdown(work)
	if err != nil {
		return "", err
	}
	path, err := e.outputPath(work.Title, ".md")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, path, err)
	}
	e.log.Infof("Exported '%s' to %s", work.Title, path)
	return path, nil
}
