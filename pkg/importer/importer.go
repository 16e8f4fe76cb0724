// Package importer brings external documents into the library: JSON
// backups, DOCX files, and Markdown.
package importer

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"angelhub/pkg/library"
	"angelhub/pkg/models"
	"angelhub/pkg/sanitize"
	"angelhub/pkg/storage"
)

// Importer writes imported works through the library store.
type Importer struct {
	store storage.WorkStore
	log   *logrus.Entry
}

func New(store storage.WorkStore, logger *logrus.Entry) *Importer {
	return &Importer{store: store, log: logger}
}

// Result summarizes one import run.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// normalizeIncoming fills the fields an external record may lack and
// sanitizes the content; nothing reaches the store unsanitized, backup
// files included. Records keep their id when they have one so
// re-importing a backup updates in place instead of duplicating.
func normalizeIncoming(w *models.Work) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.Title = strings.TrimSpace(w.Title)
	w.Content = sanitize.HTML(w.Content)
	if w.Date == "" {
		w.Date = time.Now().Format(models.DateLayout)
	}
	if w.Kind == "" {
		w.Kind = models.KindPoem
	}
	w.Tags = library.NormalizeTags(w.Tags)
	now := time.Now()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
}

// storeWork persists one normalized record, reporting whether it
// replaced an existing one.
func (im *Importer) storeWork(w *models.Work) (updated bool, err error) {
	_, getErr := im.store.Get(w.ID)
	updated = getErr == nil
	if err := im.store.Put(w); err != nil {
		return false, err
	}
	return updated, nil
}
