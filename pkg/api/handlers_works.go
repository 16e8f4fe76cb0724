package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"angelhub/pkg/chapters"
	"angelhub/pkg/library"
	"angelhub/pkg/models"
	"angelhub/pkg/sanitize"
	"angelhub/pkg/utils"
)

// workSummary is the listing shape: full content stays out of list
// responses, a short preview goes in instead.
type workSummary struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Date     string          `json:"date"`
	Tags     []string        `json:"tags"`
	Favorite bool            `json:"favorite"`
	Kind     models.WorkKind `json:"type"`
	Preview  string          `json:"preview"`
}

func summarize(w *models.Work) workSummary {
	return workSummary{
		ID:       w.ID,
		Title:    w.Title,
		Date:     w.Date,
		Tags:     w.Tags,
		Favorite: w.Favorite,
		Kind:     w.Kind,
		Preview:  library.Preview(w.Content),
	}
}

func (s *Server) handleListWorks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := library.ListOptions{
		Query:         q.Get("q"),
		FavoritesOnly: q.Get("favorites") == "true",
		Kind:          models.WorkKind(q.Get("type")),
		Sort:          library.SortOrder(q.Get("sort")),
	}
	if tags := q.Get("tags"); tags != "" {
		opts.Tags = strings.Split(tags, ",")
	}

	works, err := s.lib.ListWorks(opts)
	if err != nil {
		jsonError(w, "failed to list works: "+err.Error(), http.StatusInternalServerError)
		return
	}
	summaries := make([]workSummary, 0, len(works))
	for _, work := range works {
		summaries = append(summaries, summarize(work))
	}
	writeJSON(w, http.StatusOK, map[string]any{"works": summaries})
}

type workRequest struct {
	Title   *string         `json:"title"`
	Content *string         `json:"content"`
	Date    *string         `json:"date"`
	Tags    *[]string       `json:"tags"`
	Kind    models.WorkKind `json:"type"`
	Draft   *bool           `json:"draft"`
}

func (s *Server) handleCreateWork(w http.ResponseWriter, r *http.Request) {
	var req workRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}

	content, date := "", ""
	var tags []string
	if req.Content != nil {
		content = sanitize.HTML(*req.Content)
	}
	if req.Date != nil {
		date = *req.Date
	}
	if req.Tags != nil {
		tags = *req.Tags
	}

	work, err := s.lib.CreateWork(*req.Title, content, date, tags, req.Kind)
	if err != nil {
		jsonError(w, "failed to create work: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, work)
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	work, err := s.store.Get(chi.URLParam(r, "workID"))
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			jsonError(w, "work not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to load work: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, work)
}

func (s *Server) handleUpdateWork(w http.ResponseWriter, r *http.Request) {
	var req workRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	work, err := s.lib.UpdateWork(chi.URLParam(r, "workID"), func(work *models.Work) error {
		if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
			work.Title = strings.TrimSpace(*req.Title)
		}
		if req.Content != nil {
			idx, err := chapters.Build(sanitize.HTML(*req.Content))
			if err != nil {
				return err
			}
			work.Content = idx.HTML
		}
		if req.Date != nil {
			work.Date = *req.Date
		}
		if req.Tags != nil {
			work.Tags = library.NormalizeTags(*req.Tags)
		}
		if req.Kind != "" {
			work.Kind = req.Kind
		}
		if req.Draft != nil {
			work.Draft = *req.Draft
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			jsonError(w, "work not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to update work: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, work)
}

func (s *Server) handleDeleteWork(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "workID")); err != nil {
		jsonError(w, "failed to delete work: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorite, err := s.lib.ToggleFavorite(chi.URLParam(r, "workID"))
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			jsonError(w, "work not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to toggle favorite: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": favorite})
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.lib.AllTags()
	if err != nil {
		jsonError(w, "failed to list tags: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.lib.Stats()
	if err != nil {
		jsonError(w, "failed to compute stats: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
