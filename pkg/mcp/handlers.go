package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/mark3labs/mcp-go/mcp"

	"angelhub/pkg/chapters"
	"angelhub/pkg/library"
)

// handleListWorks handles the list_works tool
func (s *Server) handleListWorks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := library.ListOptions{
		Query:         request.GetString("query", ""),
		FavoritesOnly: request.GetBool("favorites", false),
		Sort:          library.SortOrder(request.GetString("sort", "")),
	}
	if tag := request.GetString("tag", ""); tag != "" {
		opts.Tags = []string{tag}
	}

	works, err := s.lib.ListWorks(opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list works: %v", err)), nil
	}

	items := make([]map[string]interface{}, 0, len(works))
	for _, w := range works {
		items = append(items, map[string]interface{}{
			"id":       w.ID,
			"title":    w.Title,
			"date":     w.Date,
			"type":     w.Kind,
			"tags":     w.Tags,
			"favorite": w.Favorite,
			"preview":  library.Preview(w.Content),
		})
	}

	result := map[string]interface{}{
		"works":       items,
		"total_works": len(items),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetWork handles the get_work tool
func (s *Server) handleGetWork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workID := request.GetString("work_id", "")
	if workID == "" {
		return mcp.NewToolResultError("work_id parameter is required"), nil
	}

	work, err := s.lib.GetWork(workID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("work '%s' not found: %v", workID, err)), nil
	}

	content, err := toMarkdown(work.Content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to convert to markdown: %v", err)), nil
	}

	result := map[string]interface{}{
		"id":       work.ID,
		"title":    work.Title,
		"date":     work.Date,
		"type":     work.Kind,
		"tags":     work.Tags,
		"favorite": work.Favorite,
		"content":  content,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetChapter handles the get_chapter tool
func (s *Server) handleGetChapter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workID := request.GetString("work_id", "")
	if workID == "" {
		return mcp.NewToolResultError("work_id parameter is required"), nil
	}

	work, err := s.lib.GetWork(workID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("work '%s' not found: %v", workID, err)), nil
	}

	idx, err := chapters.Build(work.Content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to index chapters: %v", err)), nil
	}

	chapterID := request.GetString("chapter_id", "")
	if chapterID == "" {
		result := map[string]interface{}{
			"work_id":        workID,
			"title":          work.Title,
			"toc":            idx.Toc,
			"total_chapters": len(idx.Toc),
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	found := false
	for _, h := range idx.Toc {
		if h.ID == chapterID {
			found = true
			break
		}
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("chapter '%s' not found in work '%s'", chapterID, workID)), nil
	}

	section, err := chapters.Extract(idx.HTML, chapterID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to extract chapter: %v", err)), nil
	}
	content, err := toMarkdown(section.Content)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to convert to markdown: %v", err)), nil
	}

	result := map[string]interface{}{
		"work_id":    workID,
		"chapter_id": chapterID,
		"title":      section.Title,
		"level":      section.Level,
		"content":    content,
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchWorks handles the search_works tool
func (s *Server) handleSearchWorks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	maxResults := request.GetInt("max_results", 10)
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	works, err := s.lib.ListWorks(library.ListOptions{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list works: %v", err)), nil
	}

	queryLower := strings.ToLower(query)
	results := make([]map[string]interface{}, 0)

	for _, w := range works {
		if len(results) >= maxResults {
			break
		}

		text := library.PlainText(w.Content)
		titleLower := strings.ToLower(w.Title)

		matched := false
		matchLocation := ""
		if strings.Contains(titleLower, queryLower) {
			matched = true
			matchLocation = "title"
		} else if strings.Contains(strings.ToLower(text), queryLower) {
			matched = true
			matchLocation = "content"
		} else {
			for _, tag := range w.Tags {
				if strings.Contains(tag, queryLower) {
					matched = true
					matchLocation = "tags"
					break
				}
			}
		}

		if matched {
			results = append(results, map[string]interface{}{
				"id":             w.ID,
				"title":          w.Title,
				"type":           w.Kind,
				"snippet":        extractSnippet(text, query, 150),
				"match_location": matchLocation,
			})
		}
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStats handles the get_stats tool
func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.lib.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to compute stats: %v", err)), nil
	}

	b, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode stats: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// handleImportDocx handles the import_docx tool
func (s *Server) handleImportDocx(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	paths, err := collectDocxPaths(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no .docx files found at '%s'", path)), nil
	}

	if s.jobManager.IsRunning(path) {
		existingJob := s.jobManager.GetJobBySource(path)
		result := map[string]interface{}{
			"status":  "already_running",
			"message": "An import is already in progress for this path",
			"job_id":  existingJob.ID,
			"source":  path,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	job, err := s.jobManager.CreateJob(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create job: %v", err)), nil
	}

	go s.runImportJob(job, paths)

	result := map[string]interface{}{
		"status":  "started",
		"message": "Import started successfully",
		"job_id":  job.ID,
		"source":  path,
		"files":   len(paths),
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job := s.jobManager.GetJob(jobID)
	if job == nil {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":         job.ID,
		"source":         job.Source,
		"status":         job.Status,
		"started_at":     job.StartedAt.Format(time.RFC3339),
		"files_imported": job.FilesImported,
		"files_failed":   job.FilesFailed,
	}

	if !job.CompletedAt.IsZero() {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}

	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// runImportJob runs a DOCX import in the background
func (s *Server) runImportJob(job *Job, paths []string) {
	s.jobManager.UpdateStatus(job.ID, JobStatusRunning, "")
	jobCtx := s.jobManager.GetContext(job.ID)

	imported, failures := s.importer.DOCXBatch(jobCtx, paths, s.cfg.AppConfig.ImportConcurrency)
	s.jobManager.UpdateProgress(job.ID, int64(len(imported)), int64(len(failures)))

	if jobCtx.Err() != nil {
		s.jobManager.UpdateStatus(job.ID, JobStatusCancelled, "")
		return
	}
	if len(imported) == 0 && len(failures) > 0 {
		s.jobManager.UpdateStatus(job.ID, JobStatusFailed, failures[0].Error())
		return
	}
	s.jobManager.UpdateStatus(job.ID, JobStatusCompleted, "")
}

// collectDocxPaths expands a file or directory path into .docx files
func collectDocxPaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access '%s': %v", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory '%s': %v", path, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".docx") {
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
	}
	return paths, nil
}

// toMarkdown converts stored HTML to markdown for tool output
func toMarkdown(markup string) (string, error) {
	converter := md.NewConverter("", true, nil)
	content, err := converter.ConvertString(markup)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// extractSnippet extracts a snippet around the query match, slicing on rune
// boundaries so multi-byte UTF-8 characters are never split.
func extractSnippet(content, query string, maxLen int) string {
	runes := []rune(content)
	queryRunes := []rune(strings.ToLower(query))
	contentLowerRunes := []rune(strings.ToLower(content))

	// Find match position in runes
	idx := -1
	for i := 0; i <= len(contentLowerRunes)-len(queryRunes); i++ {
		if string(contentLowerRunes[i:i+len(queryRunes)]) == string(queryRunes) {
			idx = i
			break
		}
	}

	if idx == -1 {
		if len(runes) > maxLen {
			return string(runes[:maxLen]) + "..."
		}
		return content
	}

	// Calculate start and end positions in rune space
	start := idx - maxLen/2
	if start < 0 {
		start = 0
	}

	end := idx + len(queryRunes) + maxLen/2
	if end > len(runes) {
		end = len(runes)
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet = snippet + "..."
	}

	return snippet
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
