// Package mcp exposes the work library to AI tooling over the Model
// Context Protocol.
package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"angelhub/pkg/config"
	"angelhub/pkg/importer"
	"angelhub/pkg/library"
	"angelhub/pkg/storage"
)

const (
	serverName    = "angelhub"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig *config.AppConfig
	Store     storage.WorkStore
	Transport string // "stdio" or "sse"
	Port      int
	Logger    *logrus.Logger
}

// Server wraps the MCP server with library-specific functionality
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	lib        *library.Library
	importer   *importer.Importer
	log        *logrus.Entry
	jobManager *JobManager
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	log := cfg.Logger.WithField("component", "mcp")
	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		lib:        library.New(cfg.Store, log),
		importer:   importer.New(cfg.Store, log),
		log:        log,
		jobManager: NewJobManager(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// list_works - List works in the library
	listWorksTool := mcp.NewTool("list_works",
		mcp.WithDescription("List works in the library, optionally filtered by query, tag, or favorites"),
		mcp.WithString("query",
			mcp.Description("Substring match on title, tags, or body text"),
		),
		mcp.WithString("tag",
			mcp.Description("Limit to works carrying this tag"),
		),
		mcp.WithBoolean("favorites",
			mcp.Description("Limit to favorited works"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort order: 'newest' (default), 'oldest', or 'alpha'"),
		),
	)
	s.mcpServer.AddTool(listWorksTool, s.handleListWorks)

	// get_work - Fetch one work as markdown
	getWorkTool := mcp.NewTool("get_work",
		mcp.WithDescription("Fetch a single work; its body is returned as markdown"),
		mcp.WithString("work_id",
			mcp.Required(),
			mcp.Description("The work id from list_works"),
		),
	)
	s.mcpServer.AddTool(getWorkTool, s.handleGetWork)

	// get_chapter - Fetch one chapter of a book
	getChapterTool := mcp.NewTool("get_chapter",
		mcp.WithDescription("Fetch one chapter of a book as markdown. Omit chapter_id to get the table of contents."),
		mcp.WithString("work_id",
			mcp.Required(),
			mcp.Description("The work id from list_works"),
		),
		mcp.WithString("chapter_id",
			mcp.Description("The chapter id from the work's table of contents"),
		),
	)
	s.mcpServer.AddTool(getChapterTool, s.handleGetChapter)

	// search_works - Text search with snippets
	searchWorksTool := mcp.NewTool("search_works",
		mcp.WithDescription("Search work bodies using text matching and return snippets"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (case-insensitive substring match)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	)
	s.mcpServer.AddTool(searchWorksTool, s.handleSearchWorks)

	// get_stats - Library dashboard aggregate
	getStatsTool := mcp.NewTool("get_stats",
		mcp.WithDescription("Get library statistics: totals, tag counts, timeline, word counts"),
	)
	s.mcpServer.AddTool(getStatsTool, s.handleGetStats)

	// import_docx - Start a background DOCX import
	importDocxTool := mcp.NewTool("import_docx",
		mcp.WithDescription("Import DOCX files from a path (file or directory) in the background. Returns immediately with a job ID."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("A .docx file or a directory containing .docx files"),
		),
	)
	s.mcpServer.AddTool(importDocxTool, s.handleImportDocx)

	// get_job_status - Check status of an import job
	getJobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status of an import job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by import_docx"),
		),
	)
	s.mcpServer.AddTool(getJobStatusTool, s.handleGetJobStatus)

	s.log.Infof("Registered %d MCP tools", 7)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
