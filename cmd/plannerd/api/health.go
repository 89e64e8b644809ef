package api

import (
	"net/http"
	"time"
)

// HealthHandler answers liveness/readiness checks, grounded on the
// teacher's api.HealthHandler.
type HealthHandler struct {
	startTime time.Time
}

// NewHealthHandler returns a handler reporting healthy from construction.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startTime: time.Now()}
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"uptime": time.Since(h.startTime).String(),
	})
}
