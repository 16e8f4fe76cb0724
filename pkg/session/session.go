// Package session manages one open editing session per work: chapter
// selection, draft state, and the merge-then-commit routine shared by
// explicit saves and the autosave ticker.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"angelhub/pkg/chapters"
	"angelhub/pkg/models"
	"angelhub/pkg/storage"
	"angelhub/pkg/utils"
)

// DefaultMaxVersions bounds the per-work snapshot history.
const DefaultMaxVersions = 30

// Session is the single writer for one work while it is open in an
// editor. Drafts accumulate in memory; Commit merges them into the
// stored document and persists only when something actually changed.
type Session struct {
	mu    sync.Mutex
	store storage.WorkStore
	log   *logrus.Entry

	workID      string
	maxVersions int

	baseHTML string // last persisted, index-normalized document
	toc      []chapters.Heading

	selected     string // chapter id, empty means whole-document editing
	draftTitle   string // work title
	draftChTitle string // selected chapter's title
	draftBody    string // chapter body, or the whole document when no chapter is selected
	draftDate    string // as typed, resolved at commit time

	lastHash string
}

// Open loads a work and starts an editing session over it. The document
// is index-normalized up front so chapter ids are stable for the whole
// session.
func Open(store storage.WorkStore, workID string, maxVersions int, logger *logrus.Entry) (*Session, error) {
	work, err := store.Get(workID)
	if err != nil {
		return nil, err
	}
	idx, err := chapters.Build(work.Content)
	if err != nil {
		return nil, err
	}

	if maxVersions <= 0 {
		maxVersions = DefaultMaxVersions
	}
	s := &Session{
		store:       store,
		log:         logger.WithField("work_id", workID),
		workID:      workID,
		maxVersions: maxVersions,
		baseHTML:    idx.HTML,
		toc:         idx.Toc,
		draftTitle:  work.Title,
		draftBody:   idx.HTML,
		draftDate:   work.Date,
	}
	s.lastHash = contentHash(work.Title, work.Content, work.Date)
	return s, nil
}

// Toc returns the current table of contents.
func (s *Session) Toc() []chapters.Heading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chapters.Heading(nil), s.toc...)
}

// Selected returns the id of the chapter open for editing, or empty when
// the whole document is the edit target.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Draft returns the current edit target's title and body.
func (s *Session) Draft() (title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != "" {
		return s.draftChTitle, s.draftBody
	}
	return s.draftTitle, s.draftBody
}

// SelectChapter makes one chapter the edit target, loading its section
// into the draft. Unsaved edits to the previous target are discarded.
// Unknown ids fail; the caller picks a valid id from Toc.
func (s *Session) SelectChapter(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(id)
}

func (s *Session) selectLocked(id string) error {
	if !s.tocHas(id) {
		return utils.WrapErrorf(utils.ErrNotFound, "chapter '%s'", id)
	}
	section, err := chapters.Extract(s.baseHTML, id)
	if err != nil {
		return err
	}
	s.selected = id
	s.draftChTitle = section.Title
	s.draftBody = section.Content
	return nil
}

// SelectWholeDocument switches back to editing the full document body,
// discarding any uncommitted chapter draft.
func (s *Session) SelectWholeDocument() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
	s.draftBody = s.baseHTML
}

// SetBody replaces the draft body of the current edit target.
func (s *Session) SetBody(markup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftBody = markup
}

// SetTitle replaces the draft title. With a chapter selected this renames
// the chapter; otherwise it renames the work. A blank chapter title is
// ignored so the heading keeps its text.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != "" {
		if strings.TrimSpace(title) != "" {
			s.draftChTitle = title
		}
		return
	}
	if strings.TrimSpace(title) != "" {
		s.draftTitle = title
	}
}

// SetDate records the edited date as typed. Day-first and ISO forms are
// accepted; resolution happens at commit time and malformed input keeps
// the previously stored date.
func (s *Session) SetDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftDate = date
}

// CreateChapter commits the current draft, appends a fresh chapter, and
// makes it the edit target with an empty body. A blank title is a no-op.
func (s *Session) CreateChapter(title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(title) == "" {
		return "", nil
	}
	merged, err := s.mergeLocked()
	if err != nil {
		return "", err
	}
	updated, id, err := chapters.Create(merged, title)
	if err != nil {
		return "", err
	}
	if err := s.commitDocumentLocked(updated, false); err != nil {
		return "", err
	}
	if err := s.selectLocked(id); err != nil {
		return "", err
	}
	s.draftBody = ""
	return id, nil
}

// DeleteChapter removes a chapter and its section span, persisting
// immediately. Deleting an unknown id is a no-op on the document. When
// the deleted chapter was selected, selection moves to the first
// remaining chapter, or to the whole document when none remain.
func (s *Session) DeleteChapter(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := chapters.Delete(s.baseHTML, id)
	if err != nil {
		return err
	}
	if err := s.commitDocumentLocked(updated, false); err != nil {
		return err
	}
	s.redirectSelectionLocked()
	return nil
}

// Commit merges drafts into the stored document and persists when the
// result differs from the last persisted value. Explicit saves and the
// autosave ticker both come through here, so interleaved triggers cannot
// produce divergent writes. withSnapshot pushes the prior persisted
// state onto the work's bounded version history.
func (s *Session) Commit(withSnapshot bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := s.mergeLocked()
	if err != nil {
		return false, err
	}
	changed, err := s.persistLocked(merged, withSnapshot)
	if err != nil {
		return false, err
	}
	s.redirectSelectionLocked()
	return changed, nil
}

// Run drives autosave on a fixed interval until ctx is cancelled.
func (s *Session) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Debugf("Autosave started (every %s)", interval)
	for {
		select {
		case <-ticker.C:
			changed, err := s.Commit(true)
			if err != nil {
				s.log.Errorf("Autosave failed: %v", err)
				continue
			}
			if changed {
				s.log.Debug("Autosave committed")
			}
		case <-ctx.Done():
			s.log.Debugf("Autosave stopped: %v", ctx.Err())
			return
		}
	}
}

// mergeLocked produces the full-document markup the drafts describe.
func (s *Session) mergeLocked() (string, error) {
	if s.selected == "" {
		return s.draftBody, nil
	}
	return chapters.Splice(s.baseHTML, s.selected, s.draftChTitle, s.draftBody)
}

// commitDocumentLocked persists a structural edit (create/delete) that
// bypasses the draft merge.
func (s *Session) commitDocumentLocked(markup string, withSnapshot bool) error {
	_, err := s.persistLocked(markup, withSnapshot)
	return err
}

func (s *Session) persistLocked(merged string, withSnapshot bool) (bool, error) {
	idx, err := chapters.Build(merged)
	if err != nil {
		return false, err
	}

	title := s.draftTitle
	prev, err := s.store.Get(s.workID)
	if err != nil {
		return false, err
	}
	date := resolveDate(s.draftDate, prev.Date)

	hash := contentHash(title, idx.HTML, date)
	if hash == s.lastHash {
		return false, nil
	}

	err = s.store.Update(s.workID, func(w *models.Work) error {
		if withSnapshot {
			pushSnapshot(w, s.maxVersions)
		}
		w.Title = title
		w.Content = idx.HTML
		w.Date = date
		return nil
	})
	if err != nil {
		return false, err
	}

	s.baseHTML = idx.HTML
	s.toc = idx.Toc
	s.lastHash = hash
	s.draftDate = date
	return true, nil
}

// redirectSelectionLocked keeps the selection valid after the index is
// rebuilt: a vanished chapter id moves to the first remaining chapter.
func (s *Session) redirectSelectionLocked() {
	if s.selected == "" || s.tocHas(s.selected) {
		return
	}
	if len(s.toc) == 0 {
		s.selected = ""
		s.draftBody = s.baseHTML
		return
	}
	if err := s.selectLocked(s.toc[0].ID); err != nil {
		s.selected = ""
		s.draftBody = s.baseHTML
	}
}

func (s *Session) tocHas(id string) bool {
	for _, h := range s.toc {
		if h.ID == id {
			return true
		}
	}
	return false
}

func pushSnapshot(w *models.Work, maxVersions int) {
	w.Versions = append(w.Versions, models.Snapshot{
		Title:   w.Title,
		Content: w.Content,
		Date:    w.Date,
		SavedAt: time.Now(),
	})
	if len(w.Versions) > maxVersions {
		w.Versions = w.Versions[len(w.Versions)-maxVersions:]
	}
}

// resolveDate normalizes an edited date to ISO form. Day-first input is
// converted; already-ISO input passes through; anything else keeps the
// previously stored date.
func resolveDate(input, previous string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return previous
	}
	if t, err := time.Parse(models.InputDateLayout, input); err == nil {
		return t.Format(models.DateLayout)
	}
	if t, err := time.Parse(models.DateLayout, input); err == nil {
		return t.Format(models.DateLayout)
	}
	return previous
}

func contentHash(title, content, date string) string {
	return utils.CalculateStringSHA256(title + "\x1f" + content + "\x1f" + date)
}
