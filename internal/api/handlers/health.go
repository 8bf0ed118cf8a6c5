package handlers

import (
	"context"
	"net/http"
	"routeflow/internal/platform/obs"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports liveness plus reachability of the route store.
type HealthHandler struct {
	DB  Pinger
	Log *zap.Logger
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.DB == nil {
		writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Database: "not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		h.Log.Warn("health: database ping failed", zap.String("req_id", obs.RequestID(r.Context())), zap.Error(err))
		writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"})
		return
	}

	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}
