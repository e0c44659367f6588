// Package server exposes the HTTP trigger API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/socialsync/instagram-sync-service/internal/config"
	"github.com/socialsync/instagram-sync-service/internal/errs"
	"github.com/socialsync/instagram-sync-service/internal/models"
)

// SyncDispatcher triggers a sync for an access token.
type SyncDispatcher interface {
	Dispatch(ctx context.Context, accessToken string) (int, error)
}

// RecordLister reads ledger records for the inspection endpoint.
type RecordLister interface {
	GetRecords(ctx context.Context, limit int) ([]models.ProcessedPost, error)
}

// Server handles HTTP requests.
type Server struct {
	dispatcher SyncDispatcher
	records    RecordLister
	logger     *slog.Logger
	server     *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(cfg config.ServerConfig, d SyncDispatcher, records RecordLister, logger *slog.Logger) *Server {
	s := &Server{
		dispatcher: d,
		records:    records,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/sync", s.handleSync)
	r.Options("/sync", s.handleSyncPreflight)
	r.Get("/health", s.handleHealth)
	r.Get("/records", s.handleRecords)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type syncRequest struct {
	AccessToken string `json:"accessToken"`
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
}

// handleSync triggers a sync run. The caller only sees coarse
// success/failure plus the queued count; per-post failures downstream are
// asynchronous and visible through logs only.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Instagram access token is required",
		})
		return
	}

	count, err := s.dispatcher.Dispatch(r.Context(), req.AccessToken)
	if err != nil {
		var appErr *errs.Error
		if errors.As(err, &appErr) && appErr.Kind == errs.KindValidation {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": appErr.Message,
			})
			return
		}

		s.logger.Error("sync failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    fmt.Sprintf("Successfully queued %d posts for processing", count),
		"postsCount": count,
	})
}

func (s *Server) handleSyncPreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRecords returns recent ledger records.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.records.GetRecords(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to retrieve records", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to retrieve records",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
