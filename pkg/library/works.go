// Package library implements the work collection: creating, listing,
// searching, and aggregate statistics over stored poems and books.
package library

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"angelhub/pkg/models"
	"angelhub/pkg/storage"
	"angelhub/pkg/utils"
)

// SortOrder selects how ListWorks orders its results.
type SortOrder string

const (
	SortNewest SortOrder = "newest" // date descending, default
	SortOldest SortOrder = "oldest" // date ascending
	SortAlpha  SortOrder = "alpha"  // title A-Z, case-insensitive
)

// ListOptions narrows and orders a listing. Zero value means everything,
// newest first.
type ListOptions struct {
	Query         string          // substring match on title, tags, or body text
	Tags          []string        // works must carry every listed tag
	FavoritesOnly bool
	Kind          models.WorkKind // empty means both kinds
	Sort          SortOrder
}

// Library wraps the work store with collection-level operations.
type Library struct {
	store storage.WorkStore
	log   *logrus.Entry
}

func New(store storage.WorkStore, logger *logrus.Entry) *Library {
	return &Library{store: store, log: logger}
}

// CreateWork mints a new work with a fresh id and stores it. An empty date
// defaults to today; tags are normalized before storage.
func (l *Library) CreateWork(title, content, date string, tags []string, kind models.WorkKind) (*models.Work, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: work title must not be empty", utils.ErrParsing)
	}
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if kind == "" {
		kind = models.KindPoem
	}
	now := time.Now()
	work := &models.Work{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Content:   content,
		Date:      date,
		Tags:      NormalizeTags(tags),
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.Put(work); err != nil {
		return nil, err
	}
	l.log.Infof("Created %s '%s' (%s)", work.Kind, work.Title, work.ID)
	return work, nil
}

// GetWork retrieves one work by id.
func (l *Library) GetWork(id string) (*models.Work, error) {
	return l.store.Get(id)
}

// UpdateWork applies mutate to the stored record atomically.
func (l *Library) UpdateWork(id string, mutate func(*models.Work) error) (*models.Work, error) {
	if err := l.store.Update(id, mutate); err != nil {
		return nil, err
	}
	return l.store.Get(id)
}

// DeleteWork removes a work. Deleting an unknown id is a no-op.
func (l *Library) DeleteWork(id string) error {
	return l.store.Delete(id)
}

// ToggleFavorite flips the favorite flag and returns the new state.
func (l *Library) ToggleFavorite(id string) (bool, error) {
	favorite := false
	err := l.store.Update(id, func(w *models.Work) error {
		w.Favorite = !w.Favorite
		favorite = w.Favorite
		return nil
	})
	return favorite, err
}

// ListWorks returns the filtered, sorted collection.
func (l *Library) ListWorks(opts ListOptions) ([]*models.Work, error) {
	works, err := l.store.List()
	if err != nil {
		return nil, err
	}
	works = Filter(works, opts)
	SortWorks(works, opts.Sort)
	return works, nil
}

// AllTags returns every distinct tag in the library, sorted.
func (l *Library) AllTags() ([]string, error) {
	works, err := l.store.List()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, w := range works {
		for _, tag := range w.Tags {
			seen[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// NormalizeTags lowercases, trims, and deduplicates tags, preserving first
// occurrence order. Empty tags are dropped.
func NormalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Filter applies every constraint in opts except the sort order.
func Filter(works []*models.Work, opts ListOptions) []*models.Work {
	query := strings.ToLower(strings.TrimSpace(opts.Query))
	wantTags := NormalizeTags(opts.Tags)

	var out []*models.Work
	for _, w := range works {
		if opts.FavoritesOnly && !w.Favorite {
			continue
		}
		if opts.Kind != "" && w.Kind != opts.Kind {
			continue
		}
		if !hasAllTags(w, wantTags) {
			continue
		}
		if query != "" && !matchesQuery(w, query) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func hasAllTags(w *models.Work, want []string) bool {
	for _, tag := range want {
		found := false
		for _, have := range w.Tags {
			if have == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesQuery(w *models.Work, query string) bool {
	if strings.Contains(strings.ToLower(w.Title), query) {
		return true
	}
	for _, tag := range w.Tags {
		if strings.Contains(tag, query) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(PlainText(w.Content)), query)
}

// SortWorks orders works in place. Ties on the primary key fall back to
// title so listings are stable across requests.
func SortWorks(works []*models.Work, order SortOrder) {
	switch order {
	case SortOldest:
		sort.SliceStable(works, func(i, j int) bool {
			if works[i].Date != works[j].Date {
				return works[i].Date < works[j].Date
			}
			return lessTitle(works[i], works[j])
		})
	case SortAlpha:
		sort.SliceStable(works, func(i, j int) bool {
			return lessTitle(works[i], works[j])
		})
	default: // SortNewest
		sort.SliceStable(works, func(i, j int) bool {
			if works[i].Date != works[j].Date {
				return works[i].Date > works[j].Date
			}
			return lessTitle(works[i], works[j])
		})
	}
}

func lessTitle(a, b *models.Work) bool {
	return strings.ToLower(a.Title) < strings.ToLower(b.Title)
}

// PlainText strips markup from a stored body, returning the readable text.
// Unparseable input falls back to the raw string.
func PlainText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	return strings.TrimSpace(doc.Text())
}

const previewRuneLimit = 160

// Preview returns a short plain-text excerpt of a work body for listings.
func Preview(markup string) string {
	text := strings.Join(strings.Fields(PlainText(markup)), " ")
	runes := []rune(text)
	if len(runes) <= previewRuneLimit {
		return text
	}
	return strings.TrimSpace(string(runes[:previewRuneLimit])) + "…"
}
