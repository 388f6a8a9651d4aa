// Package handler exposes the operational HTTP surface: health, database
// statistics, and on-demand runs. It is a JSON API for operators and cron
// supervision, not a user-facing site.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/medishorts/internal/store"
	"github.com/pavelanni/medishorts/internal/workflow"
)

// DailyRunner executes one content run.
type DailyRunner interface {
	RunDaily(ctx context.Context) (*workflow.Result, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	runner DailyRunner

	// One run at a time; a second trigger while busy is rejected.
	mu      sync.Mutex
	running bool
}

// New creates a new Handler.
func New(s *store.Store, runner DailyRunner) *Handler {
	return &Handler{store: s, runner: runner}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/stats", h.handleStats)
	r.Post("/run", h.handleRun)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}
	h.running = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()

	result, err := h.runner.RunDaily(r.Context())
	if err != nil {
		slog.Error("triggered run failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
