package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"angelhub/pkg/chapters"
	"angelhub/pkg/sanitize"
	"angelhub/pkg/session"
)

// sessionState is the wire shape of an open editing session.
type sessionState struct {
	WorkID   string             `json:"work_id"`
	Selected string             `json:"selected,omitempty"`
	Title    string             `json:"title"`
	Body     string             `json:"body"`
	Toc      []chapters.Heading `json:"toc"`
}

// sessionRequest carries draft updates. Pointer fields distinguish
// "leave alone" from "set to this value".
type sessionRequest struct {
	SelectChapter *string `json:"select_chapter,omitempty"`
	WholeDocument bool    `json:"whole_document,omitempty"`
	Title         *string `json:"title,omitempty"`
	Body          *string `json:"body,omitempty"`
	Date          *string `json:"date,omitempty"`
}

func (s *Server) sessionState(workID string, sess *session.Session) sessionState {
	title, body := sess.Draft()
	return sessionState{
		WorkID:   workID,
		Selected: sess.Selected(),
		Title:    title,
		Body:     body,
		Toc:      sess.Toc(),
	}
}

// handleOpenSession opens (or returns the already-open) editing session
// for a work and starts its autosave loop.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workID")

	s.sessionMu.Lock()
	open, exists := s.sessions[workID]
	if !exists {
		sess, err := session.Open(s.store, workID, s.cfg.MaxVersions, s.log)
		if err != nil {
			s.sessionMu.Unlock()
			respondStoreError(w, err)
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		go sess.Run(ctx, s.cfg.AutosaveInterval)
		open = &openSession{sess: sess, cancel: cancel}
		s.sessions[workID] = open
	}
	s.sessionMu.Unlock()

	status := http.StatusOK
	if !exists {
		status = http.StatusCreated
	}
	writeJSON(w, status, s.sessionState(workID, open.sess))
}

// handleGetSession returns the current draft state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workID")
	open := s.lookupSession(workID)
	if open == nil {
		jsonError(w, "no open session for this work", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.sessionState(workID, open.sess))
}

// handleUpdateSession applies draft updates: chapter selection first,
// then title, body, and date.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workID")
	open := s.lookupSession(workID)
	if open == nil {
		jsonError(w, "no open session for this work", http.StatusNotFound)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if req.WholeDocument {
		open.sess.SelectWholeDocument()
	} else if req.SelectChapter != nil {
		if err := open.sess.SelectChapter(*req.SelectChapter); err != nil {
			jsonError(w, "chapter not found", http.StatusNotFound)
			return
		}
	}
	if req.Title != nil {
		open.sess.SetTitle(*req.Title)
	}
	if req.Body != nil {
		open.sess.SetBody(sanitize.HTML(*req.Body))
	}
	if req.Date != nil {
		open.sess.SetDate(*req.Date)
	}

	writeJSON(w, http.StatusOK, s.sessionState(workID, open.sess))
}

// handleCommitSession merges and persists the draft explicitly.
func (s *Server) handleCommitSession(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workID")
	open := s.lookupSession(workID)
	if open == nil {
		jsonError(w, "no open session for this work", http.StatusNotFound)
		return
	}

	changed, err := open.sess.Commit(false)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"state":   s.sessionState(workID, open.sess),
	})
}

// handleCloseSession stops autosave and discards uncommitted edits.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	workID := chi.URLParam(r, "workID")

	s.sessionMu.Lock()
	open, exists := s.sessions[workID]
	if exists {
		open.cancel()
		delete(s.sessions, workID)
	}
	s.sessionMu.Unlock()

	if !exists {
		jsonError(w, "no open session for this work", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) lookupSession(workID string) *openSession {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.sessions[workID]
}

// CloseSessions cancels every autosave loop. Called on server shutdown.
func (s *Server) CloseSessions() {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	for id, open := range s.sessions {
		open.cancel()
		delete(s.sessions, id)
	}
}
