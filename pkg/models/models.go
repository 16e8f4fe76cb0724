// Package models defines the persistent records shared across angelhub.
package models

import "time"

// WorkKind distinguishes the two shapes a work can take. Poems are a single
// flat document; books derive a chapter structure from their headings.
type WorkKind string

const (
	KindPoem WorkKind = "poem"
	KindBook WorkKind = "book"
)

// DateLayout is the ISO form work dates are stored in.
const DateLayout = "2006-01-02"

// InputDateLayout is the day-first form dates are accepted in from editors.
const InputDateLayout = "02/01/2006"

// Work is the unit of persistence: one poem or book. Content is the
// serialized rich-text body; for books, chapter boundaries live inside it
// as heading markers and are never stored separately.
type Work struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Date      string     `json:"date"` // ISO yyyy-MM-dd
	Tags      []string   `json:"tags"`
	Favorite  bool       `json:"favorite,omitempty"`
	Draft     bool       `json:"draft,omitempty"`
	Kind      WorkKind   `json:"type,omitempty"`
	Versions  []Snapshot `json:"versions,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Snapshot is a prior state of a work, captured before an autosave commit
// overwrites it. History is bounded; oldest snapshots fall off first.
type Snapshot struct {
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Date    string    `json:"date"`
	SavedAt time.Time `json:"saved_at"`
}

// IsBook reports whether the work uses the chapter-aware document model.
// Anything that is not explicitly a poem is treated as a book, matching the
// forgiving reads the rest of the system does on stored records.
func (w *Work) IsBook() bool {
	return w.Kind != KindPoem
}

// Clone returns a deep copy, so callers can mutate drafts without aliasing
// the stored record.
func (w *Work) Clone() *Work {
	c := *w
	c.Tags = append([]string(nil), w.Tags...)
	c.Versions = append([]Snapshot(nil), w.Versions...)
	return &c
}
