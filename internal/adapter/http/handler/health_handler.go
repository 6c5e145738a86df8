package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/gotransact/internal/adapter/http/dto"
)

// Check is a named dependency probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks []Check
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.Success(map[string]string{"status": "ok"}, "alive"))
}

// Readiness returns 200 if every dependency answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status[check.Name] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, &dto.APIResponse{
				Data:    status,
				Message: check.Name + " unhealthy",
				Code:    "UNAVAILABLE",
			})
			return
		}
		status[check.Name] = "ok"
	}

	writeJSON(w, http.StatusOK, dto.Success(status, "ready"))
}
