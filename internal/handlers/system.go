package handlers

import (
	_ "embed"
	"net/http"

	"github.com/alfagnish/userreg/internal/feed"
	"github.com/alfagnish/userreg/internal/registry"
	"github.com/go-chi/chi/v5"
)

//go:embed openapi.json
var openAPIDoc []byte

// SystemHandler provides the health check and the API description.
type SystemHandler struct {
	reg *registry.Registry
	hub *feed.Hub
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(reg *registry.Registry, hub *feed.Hub) *SystemHandler {
	return &SystemHandler{reg: reg, hub: hub}
}

// Routes registers all system routes on the given chi router.
func (h *SystemHandler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/openapi.json", h.OpenAPI)
}

// Health reports liveness along with the current user and feed subscriber
// counts.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"users":            h.reg.Len(),
		"feed_subscribers": h.hub.Subscribers(),
	})
}

// OpenAPI serves the embedded OpenAPI 3 document for the user routes.
func (h *SystemHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDoc)
}
