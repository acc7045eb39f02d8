// Package api exposes the view's slots to renderers over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ashureev/sensorview/internal/view"
	"github.com/go-chi/chi/v5"
)

// StateSource provides the current slots.
type StateSource interface {
	Snapshot() view.Snapshot
}

// Handler serves read-only slot state.
type Handler struct {
	state StateSource
}

// NewHandler creates a new Handler reading from state.
func NewHandler(state StateSource) *Handler {
	return &Handler{state: state}
}

// RegisterRoutes mounts the view routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/view", h.handleView)
	r.Get("/api/view/{slot}", h.handleSlot)
}

func (h *Handler) handleView(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) handleSlot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "slot")
	value, ok := h.state.Snapshot().Slot(name)
	if !ok {
		Error(w, http.StatusNotFound, "unknown slot")
		return
	}
	JSON(w, http.StatusOK, value)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
