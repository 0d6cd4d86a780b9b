package http

import (
	"net/http"

	"github.com/go-chi/render"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Handle processes GET /healthz
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}
