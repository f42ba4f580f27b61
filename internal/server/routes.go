package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Feeds
	mux.HandleFunc("/api/news", s.app.NewsHandler.ListHandler)

	// API routes - Article generation
	mux.HandleFunc("/api/articles/generate", s.app.WriterHandler.GenerateHandler)

	// API routes - Publishing
	mux.HandleFunc("/api/publish/blog", s.app.PublishHandler.BlogHandler)
	mux.HandleFunc("/api/publish/social", s.app.PublishHandler.SocialHandler)

	// API routes - Pipeline
	mux.HandleFunc("/api/pipeline/run", s.app.PipelineHandler.RunHandler)
	mux.HandleFunc("/api/pipeline/status", s.app.PipelineHandler.StatusHandler)

	// API routes - History
	mux.HandleFunc("/api/history", s.app.HistoryHandler.ListHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
