package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"angelhub/pkg/chapters"
	"angelhub/pkg/models"
	"angelhub/pkg/sanitize"
	"angelhub/pkg/utils"
)

// loadIndexed fetches a work and rebuilds its chapter index, persisting
// the normalized markup when indexing assigned new ids or markers.
func (s *Server) loadIndexed(workID string) (*models.Work, *chapters.Index, error) {
	work, err := s.store.Get(workID)
	if err != nil {
		return nil, nil, err
	}
	idx, err := chapters.Build(work.Content)
	if err != nil {
		return nil, nil, err
	}
	if idx.HTML != work.Content {
		err = s.store.Update(workID, func(w *models.Work) error {
			w.Content = idx.HTML
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		work.Content = idx.HTML
	}
	return work, &idx, nil
}

// saveDocument persists an edited document body, re-indexing first so
// the stored markup always carries ids and creation markers.
func (s *Server) saveDocument(workID, markup string) (*chapters.Index, error) {
	idx, err := chapters.Build(markup)
	if err != nil {
		return nil, err
	}
	err = s.store.Update(workID, func(w *models.Work) error {
		w.Content = idx.HTML
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

func (s *Server) handleToc(w http.ResponseWriter, r *http.Request) {
	_, idx, err := s.loadIndexed(chi.URLParam(r, "workID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"toc": idx.Toc})
}

type chapterResponse struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterID")
	work, idx, err := s.loadIndexed(chi.URLParam(r, "workID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !tocContains(idx.Toc, chapterID) {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}

	section, err := chapters.Extract(work.Content, chapterID)
	if err != nil {
		jsonError(w, "failed to extract chapter: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, chapterResponse{
		ID:      chapterID,
		Title:   section.Title,
		Level:   section.Level,
		Content: section.Content,
	})
}

type chapterRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleUpdateChapter(w http.ResponseWriter, r *http.Request) {
	var req chapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	chapterID := chi.URLParam(r, "chapterID")
	workID := chi.URLParam(r, "workID")

	work, idx, err := s.loadIndexed(workID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if !tocContains(idx.Toc, chapterID) {
		jsonError(w, "chapter not found", http.StatusNotFound)
		return
	}

	merged, err := chapters.Splice(work.Content, chapterID, req.Title, sanitize.HTML(req.Content))
	if err != nil {
		jsonError(w, "failed to splice chapter: "+err.Error(), http.StatusInternalServerError)
		return
	}
	updated, err := s.saveDocument(workID, merged)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"toc": updated.Toc})
}

func (s *Server) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var req chapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		jsonError(w, "chapter title is required", http.StatusBadRequest)
		return
	}
	workID := chi.URLParam(r, "workID")

	work, _, err := s.loadIndexed(workID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	markup, chapterID, err := chapters.Create(work.Content, req.Title)
	if err != nil {
		jsonError(w, "failed to create chapter: "+err.Error(), http.StatusInternalServerError)
		return
	}
	updated, err := s.saveDocument(workID, markup)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": chapterID, "toc": updated.Toc})
}

func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workID")

	work, _, err := s.loadIndexed(workID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	markup, err := chapters.Delete(work.Content, chi.URLParam(r, "chapterID"))
	if err != nil {
		jsonError(w, "failed to delete chapter: "+err.Error(), http.StatusInternalServerError)
		return
	}
	updated, err := s.saveDocument(workID, markup)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"toc": updated.Toc})
}

func tocContains(toc []chapters.Heading, id string) bool {
	for _, h := range toc {
		if h.ID == id {
			return true
		}
	}
	return false
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, utils.ErrNotFound) {
		jsonError(w, "work not found", http.StatusNotFound)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}
