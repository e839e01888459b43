package handlers

import "net/http"

// HealthHandler reports liveness.
type HealthHandler struct{}

// NewHealthHandler returns handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
