package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"angelhub/pkg/export"
)

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	works, err := s.store.List()
	if err != nil {
		jsonError(w, "failed to load works: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="angelhub-backup.json"`)
	if err := export.JSON(w, works); err != nil {
		s.log.Errorf("Backup export failed mid-stream: %v", err)
	}
}

func (s *Server) handleExportWork(w http.ResponseWriter, r *http.Request) {
	work, err := s.store.Get(chi.URLParam(r, "workID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	switch chi.URLParam(r, "format") {
	case "markdown":
		content, err := export.Markdown(work)
		if err != nil {
			jsonError(w, "markdown export failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(content))
	case "docx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
		if err := export.DOCX(w, work); err != nil {
			s.log.Errorf("DOCX export failed mid-stream: %v", err)
		}
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		if err := export.PDF(w, work); err != nil {
			s.log.Errorf("PDF export failed mid-stream: %v", err)
		}
	default:
		jsonError(w, "unknown export format (want markdown, docx, or pdf)", http.StatusBadRequest)
	}
}

func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	result, err := s.importer.JSON(r.Body)
	if err != nil {
		jsonError(w, "import failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
