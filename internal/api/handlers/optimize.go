package handlers

import (
	"net/http"
	"routeflow/internal/api/dto"
	"routeflow/internal/services"

	"go.uber.org/zap"
)

// OptimizeHandler orders an ad-hoc set of stops without persisting them.
type OptimizeHandler struct {
	Planner *services.RoutePlanner
	Log     *zap.Logger
}

func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stops, err := toStopInputs(req.Stops)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	svcReq := services.OptimizeStopsRequest{
		Stops: stops,
		Start: toCoordinates(req.Start),
	}
	if req.StartTime != nil {
		svcReq.StartTime = *req.StartTime
	}

	res, err := h.Planner.OptimizeStops(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, h.Log, "optimize stops", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.OptimizeResponse{
		Stops:                 toStopResponses(res.Stops),
		TotalDistanceMeters:   res.TotalDistanceMeters,
		TotalDurationSeconds:  res.TotalDurationSeconds,
		InitialDistanceMeters: res.InitialDistanceMeters,
		Passes:                res.Passes,
		Swaps:                 res.Swaps,
		Truncated:             res.Truncated,
	})
}
