// Package api exposes the library over an HTTP JSON interface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"angelhub/pkg/config"
	"angelhub/pkg/export"
	"angelhub/pkg/importer"
	"angelhub/pkg/library"
	"angelhub/pkg/session"
	"angelhub/pkg/storage"
)

// Server is the HTTP API server for angelhub.
type Server struct {
	router   chi.Router
	store    storage.WorkStore
	lib      *library.Library
	exporter *export.Exporter
	importer *importer.Importer
	cfg      *config.AppConfig
	log      *logrus.Entry

	sessionMu sync.Mutex
	sessions  map[string]*openSession
}

// openSession pairs an editing session with the cancel func for its
// autosave loop.
type openSession struct {
	sess   *session.Session
	cancel context.CancelFunc
}

// NewServer creates and configures the HTTP server.
func NewServer(store storage.WorkStore, cfg *config.AppConfig, logger *logrus.Entry) *Server {
	s := &Server{
		store:    store,
		lib:      library.New(store, logger.WithField("component", "library")),
		exporter: export.New(cfg.ExportDir, logger.WithField("component", "export")),
		importer: importer.New(store, logger.WithField("component", "import")),
		cfg:      cfg,
		log:      logger,
		sessions: make(map[string]*openSession),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/works", s.handleListWorks)
		r.Post("/works", s.handleCreateWork)
		r.Get("/works/{workID}", s.handleGetWork)
		r.Put("/works/{workID}", s.handleUpdateWork)
		r.Delete("/works/{workID}", s.handleDeleteWork)
		r.Post("/works/{workID}/favorite", s.handleToggleFavorite)

		r.Get("/works/{workID}/toc", s.handleToc)
		r.Post("/works/{workID}/chapters", s.handleCreateChapter)
		r.Get("/works/{workID}/chapters/{chapterID}", s.handleGetChapter)
		r.Put("/works/{workID}/chapters/{chapterID}", s.handleUpdateChapter)
		r.Delete("/works/{workID}/chapters/{chapterID}", s.handleDeleteChapter)

		r.Post("/works/{workID}/session", s.handleOpenSession)
		r.Get("/works/{workID}/session", s.handleGetSession)
		r.Put("/works/{workID}/session", s.handleUpdateSession)
		r.Post("/works/{workID}/session/commit", s.handleCommitSession)
		r.Delete("/works/{workID}/session", s.handleCloseSession)

		r.Get("/tags", s.handleTags)
		r.Get("/stats", s.handleStats)

		r.Get("/export/json", s.handleExportJSON)
		r.Get("/works/{workID}/export/{format}", s.handleExportWork)
		r.Post("/import/json", s.handleImportJSON)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
