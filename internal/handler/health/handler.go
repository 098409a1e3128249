package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/interviewfriend/relay/backend/pkg/utils"
)

// Handler reports whether the inference client was constructed at startup.
// It does not probe the backend.
type Handler struct {
	ready bool
}

// New creates the health handler.
func New(ready bool) *Handler {
	return &Handler{ready: ready}
}

// RegisterRoutes mounts GET /health.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := http.StatusOK
	if !h.ready {
		status = http.StatusServiceUnavailable
	}
	utils.RespondJSON(w, status, map[string]bool{"nim_ready": h.ready})
}
