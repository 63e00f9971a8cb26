package handlers

import (
	"context"
	"net/http"

	"github.com/isdelr/taskboard-be/internal/monitoring"
	"github.com/rs/zerolog/log"
)

// StatsProvider produces health snapshots.
type StatsProvider interface {
	Snapshot(ctx context.Context) (monitoring.Snapshot, error)
}

// HealthHandler reports liveness and store statistics.
type HealthHandler struct {
	stats StatsProvider
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Stats   *monitoring.Snapshot `json:"stats,omitempty"`
}

// Get handles GET /health.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "OK", Message: "Server is running"})
		return
	}

	snap, err := h.stats.Snapshot(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "DEGRADED",
			Message: "Database unavailable",
			Stats:   &snap,
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "OK", Message: "Server is running", Stats: &snap})
}
