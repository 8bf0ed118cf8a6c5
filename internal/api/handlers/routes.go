package handlers

import (
	"net/http"
	"routeflow/internal/api/dto"
	"routeflow/internal/domain"
	"routeflow/internal/services"

	"go.uber.org/zap"
)

// RouteHandler exposes stored routes: CRUD, optimization and stop progress.
type RouteHandler struct {
	Planner *services.RoutePlanner
	Log     *zap.Logger
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stops, err := toStopInputs(req.Stops)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Planner.CreateRoute(r.Context(), services.CreateRouteRequest{
		Name:  req.Name,
		Start: toCoordinates(req.Start),
		Stops: stops,
	})
	if err != nil {
		writeServiceError(w, r, h.Log, "create route", err)
		return
	}

	w.Header().Set("Location", "/routes/"+route.ID.String())
	writeJSON(w, r, http.StatusCreated, toRouteResponse(route))
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	routes, err := h.Planner.ListRoutes(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Log, "list routes", err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(routes))}
	for _, rt := range routes {
		res.Routes = append(res.Routes, toRouteResponse(rt))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Planner.GetRoute(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.Log, "get route", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResponse(route))
}

func (h *RouteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Planner.DeleteRoute(r.Context(), id); err != nil {
		writeServiceError(w, r, h.Log, "delete route", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Optimize reorders the route's stops. An empty body reuses the stored start
// and departs now.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.OptimizeRouteRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	svcReq := services.OptimizeRouteRequest{
		RouteID: id,
		Start:   toCoordinates(req.Start),
	}
	if req.StartTime != nil {
		svcReq.StartTime = *req.StartTime
	}

	route, res, err := h.Planner.OptimizeRoute(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, r, h.Log, "optimize route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.OptimizeRouteResponse{
		Route:     toRouteResponse(route),
		Passes:    res.Passes,
		Swaps:     res.Swaps,
		Truncated: res.Truncated,
	})
}

func (h *RouteHandler) AddStop(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.StopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in, err := toStopInput(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Planner.AddStop(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.Log, "add stop", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toRouteResponse(route))
}

func (h *RouteHandler) RemoveStop(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	stopID, err := pathUUID(r, "stopID")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Planner.RemoveStop(r.Context(), id, stopID)
	if err != nil {
		writeServiceError(w, r, h.Log, "remove stop", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResponse(route))
}

// UpdateStop records delivery progress for one stop.
func (h *RouteHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	stopID, err := pathUUID(r, "stopID")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req dto.UpdateStopRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	status, err := domain.ParseDeliveryStatus(req.Status)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	route, err := h.Planner.UpdateStopStatus(r.Context(), id, stopID, status)
	if err != nil {
		writeServiceError(w, r, h.Log, "update stop status", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResponse(route))
}
