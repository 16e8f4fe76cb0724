package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"angelhub/pkg/config"
	"angelhub/pkg/models"
	"angelhub/pkg/storage"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewBadgerStore(context.Background(), dir, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.ExportDir = filepath.Join(dir, "exports")
	return NewServer(store, cfg, testLogger()), store
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkCRUD(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{
		"title":   "First Poem",
		"content": "<p>a verse</p>",
		"tags":    []string{"Nature"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[models.Work](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"nature"}, created.Tags)

	t.Run("get", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/works/"+created.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[models.Work](t, rec)
		assert.Equal(t, "First Poem", got.Title)
	})

	t.Run("update", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPut, "/api/works/"+created.ID, map[string]any{
			"title": "Renamed",
			"date":  "2026-05-01",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[models.Work](t, rec)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "2026-05-01", got.Date)
		assert.Equal(t, []string{"nature"}, got.Tags)
	})

	t.Run("favorite toggle", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/works/"+created.ID+"/favorite", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[map[string]bool](t, rec)
		assert.True(t, got["favorite"])
	})

	t.Run("delete then 404", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodDelete, "/api/works/"+created.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(t, s, http.MethodGet, "/api/works/"+created.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("create requires title", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{"content": "<p>x</p>"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListWorks(t *testing.T) {
	s, _ := newTestServer(t)
	for i, title := range []string{"Alpha", "Beta"} {
		rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{
			"title":   title,
			"content": fmt.Sprintf("<p>body %d</p>", i),
			"date":    fmt.Sprintf("2026-01-0%d", i+1),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doRequest(t, s, http.MethodGet, "/api/works?sort=alpha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string][]workSummary](t, rec)
	require.Len(t, got["works"], 2)
	assert.Equal(t, "Alpha", got["works"][0].Title)
	assert.Equal(t, "body 0", got["works"][0].Preview)

	t.Run("query filter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/works?q=beta", nil)
		got := decodeBody[map[string][]workSummary](t, rec)
		require.Len(t, got["works"], 1)
		assert.Equal(t, "Beta", got["works"][0].Title)
	})
}

func TestChapterFlow(t *testing.T) {
	s, store := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{
		"title":   "My Book",
		"type":    "book",
		"content": "<h2>Intro</h2><p>A</p><h2>Body</h2><p>B</p>",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	book := decodeBody[models.Work](t, rec)

	type tocEntry struct {
		ID    string `json:"id"`
		Text  string `json:"text"`
		Level int    `json:"level"`
	}
	type tocResponse struct {
		Toc []tocEntry `json:"toc"`
	}

	rec = doRequest(t, s, http.MethodGet, "/api/works/"+book.ID+"/toc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	toc := decodeBody[tocResponse](t, rec)
	require.Len(t, toc.Toc, 2)
	assert.Equal(t, "ch-0-intro", toc.Toc[0].ID)
	assert.Equal(t, "Intro", toc.Toc[0].Text)

	t.Run("indexing is persisted", func(t *testing.T) {
		w, err := store.Get(book.ID)
		require.NoError(t, err)
		assert.Contains(t, w.Content, `id="ch-0-intro"`)
		assert.Contains(t, w.Content, `data-created="0"`)
	})

	t.Run("get chapter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/works/"+book.ID+"/chapters/ch-0-intro", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		ch := decodeBody[chapterResponse](t, rec)
		assert.Equal(t, "Intro", ch.Title)
		assert.Equal(t, 2, ch.Level)
		assert.Equal(t, "<p>A</p>", ch.Content)
	})

	t.Run("unknown chapter is 404", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/works/"+book.ID+"/chapters/ch-9-ghost", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update chapter splices in place", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPut, "/api/works/"+book.ID+"/chapters/ch-1-body", map[string]any{
			"title":   "Middle",
			"content": "<p>C</p>",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		w, err := store.Get(book.ID)
		require.NoError(t, err)
		assert.Contains(t, w.Content, ">Middle</h2>")
		assert.Contains(t, w.Content, "<p>C</p>")
		assert.Contains(t, w.Content, "<p>A</p>")
		assert.NotContains(t, w.Content, "<p>B</p>")
	})

	t.Run("create chapter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/works/"+book.ID+"/chapters", map[string]any{
			"title": "Epilogue",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		got := decodeBody[map[string]json.RawMessage](t, rec)
		var id string
		require.NoError(t, json.Unmarshal(got["id"], &id))
		assert.Equal(t, "ch-new-epilogue", id)
	})

	t.Run("blank chapter title is 400", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/works/"+book.ID+"/chapters", map[string]any{
			"title": "  ",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete chapter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodDelete, "/api/works/"+book.ID+"/chapters/ch-0-intro", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decodeBody[tocResponse](t, rec)
		for _, e := range got.Toc {
			assert.NotEqual(t, "ch-0-intro", e.ID)
		}

		w, err := store.Get(book.ID)
		require.NoError(t, err)
		assert.NotContains(t, w.Content, "<p>A</p>")
	})
}

func TestSanitization(t *testing.T) {
	s, store := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{
		"title":   "Unsafe",
		"content": `<p>ok</p><script>alert(1)</script>`,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[models.Work](t, rec)

	w, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.NotContains(t, w.Content, "<script>")
}

func TestStatsAndTags(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{
		"title": "T", "content": "<p>x</p>", "tags": []string{"sea"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_works":1`)

	rec = doRequest(t, s, http.MethodGet, "/api/tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"sea"}, got["tags"])
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{
		"title": "Kept", "content": "<p>x</p>",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, s, http.MethodGet, "/api/export/json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	backup := rec.Body.String()
	assert.Contains(t, backup, `"Kept"`)

	// Import into a fresh server.
	s2, store2 := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import/json", strings.NewReader(backup))
	rec2 := httptest.NewRecorder()
	s2.ServeHTTP(rec2, req)
	require.Equal(t, http.StatusOK, rec2.Code)

	count, err := store2.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExportWorkFormats(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/api/works", map[string]any{
		"title": "Doc", "content": "<p>content</p>",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[models.Work](t, rec)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"markdown", "text/markdown", "# Doc"},
		{"pdf", "application/pdf", "%PDF"},
		{"docx", "application/vnd.openxmlformats", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodGet, "/api/works/"+created.ID+"/export/"+tt.format, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.contentType)
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.prefix))
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/works/"+created.ID+"/export/odt", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
