// Package server provides the HTTP REST API for the job application tracker.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/job-tracker/internal/storage"
	"github.com/jonathan/job-tracker/internal/tracker"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	svc        *tracker.Service
	uploads    *storage.Dir
}

// Config holds server configuration
type Config struct {
	Port int
}

// New creates a new server instance
func New(cfg Config, svc *tracker.Service, uploads *storage.Dir) *Server {
	s := &Server{svc: svc, uploads: uploads}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Application CRUD
	mux.HandleFunc("POST /applications", s.handleCreateApplication)
	mux.HandleFunc("GET /applications", s.handleListApplications)
	mux.HandleFunc("GET /applications/{id}", s.handleGetApplication)
	mux.HandleFunc("PUT /applications/{id}", s.handleUpdateApplication)
	mux.HandleFunc("DELETE /applications/{id}", s.handleDeleteApplication)
	mux.HandleFunc("PUT /applications/{id}/archive", s.handleArchiveApplication)
	mux.HandleFunc("PUT /applications/{id}/unarchive", s.handleUnarchiveApplication)

	// Bulk operations
	mux.HandleFunc("POST /applications/bulk/delete", s.handleBulkDelete)
	mux.HandleFunc("POST /applications/bulk/archive", s.handleBulkArchive)
	mux.HandleFunc("POST /applications/bulk/unarchive", s.handleBulkUnarchive)
	mux.HandleFunc("POST /applications/bulk/status", s.handleBulkStatus)

	// Document attachments
	mux.HandleFunc("POST /applications/{id}/documents/{type}", s.handleUploadDocument)
	mux.HandleFunc("GET /applications/{id}/documents/{type}", s.handleDownloadDocument)

	// Collection views
	mux.HandleFunc("GET /statistics", s.handleStatistics)
	mux.HandleFunc("GET /tags", s.handleListTags)
	mux.HandleFunc("GET /domains", s.handleListDomains)
	mux.HandleFunc("GET /export/excel", s.handleExportExcel)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for requests and blocks until the process receives
// an interrupt, then drains in-flight requests.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding JSON response", "err", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
