package importer

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fumiama/go-docx"
	"golang.org/x/sync/semaphore"

	"angelhub/pkg/chapters"
	"angelhub/pkg/models"
	"angelhub/pkg/utils"
)

// DOCXFile imports one Word document as a new work. Heading-styled
// paragraphs become chapter headings, everything else becomes prose.
// A document with at least one heading imports as a book.
func (im *Importer) DOCXFile(path string) (*models.Work, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", utils.ErrFilesystem, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", utils.ErrFilesystem, path, err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: parsing DOCX %s: %w", utils.ErrImport, path, err)
	}

	markup, hasHeadings := docxToHTML(doc)
	if strings.TrimSpace(markup) == "" {
		return nil, fmt.Errorf("%w: %s contains no text", utils.ErrImport, path)
	}

	// Normalize up front so chapter ids exist before the first edit.
	idx, err := chapters.Build(markup)
	if err != nil {
		return nil, err
	}

	kind := models.KindPoem
	if hasHeadings {
		kind = models.KindBook
	}
	work := &models.Work{
		Title:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Content: idx.HTML,
		Kind:    kind,
	}
	normalizeIncoming(work)

	if _, err := im.storeWork(work); err != nil {
		return nil, err
	}
	im.log.Infof("Imported %s '%s' from %s", work.Kind, work.Title, path)
	return work, nil
}

// BatchError pairs a failed input path with its error.
type BatchError struct {
	Path string
	Err  error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// DOCXBatch imports several Word documents concurrently, bounded by a
// weighted semaphore. Failures are collected per file; one bad document
// does not stop the rest.
func (im *Importer) DOCXBatch(ctx context.Context, paths []string, concurrency int64) ([]*models.Work, []BatchError) {
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := semaphore.NewWeighted(concurrency)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		imported []*models.Work
		failures []BatchError
	)

	for _, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures = append(failures, BatchError{Path: path, Err: err})
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			defer sem.Release(1)

			work, err := im.DOCXFile(p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, BatchError{Path: p, Err: err})
				return
			}
			imported = append(imported, work)
		}(path)
	}
	wg.Wait()

	im.log.Infof("DOCX batch import: %d succeeded, %d failed", len(imported), len(failures))
	return imported, failures
}

// docxToHTML flattens the document body to the markup the chapter model
// understands. Word heading levels collapse onto h1-h3.
func docxToHTML(doc *docx.Docx) (string, bool) {
	var sb strings.Builder
	hasHeadings := false

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		level := headingLevel(para)
		if level > 3 {
			level = 3
		}
		if level > 0 {
			hasHeadings = true
			fmt.Fprintf(&sb, "<h%d>%s</h%d>", level, html.EscapeString(text), level)
		} else {
			fmt.Fprintf(&sb, "<p>%s</p>", html.EscapeString(text))
		}
	}
	return sb.String(), hasHeadings
}

func headingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
