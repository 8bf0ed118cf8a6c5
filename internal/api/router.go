package api

import (
	"net/http"
	"routeflow/internal/api/handlers"
	"routeflow/internal/platform/metrics"
	"routeflow/internal/services"

	"go.uber.org/zap"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
// db may be nil, in which case /health reports liveness only.
func NewRouter(planner *services.RoutePlanner, db handlers.Pinger, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")
	mux := http.NewServeMux()

	optimizeHandler := &handlers.OptimizeHandler{Planner: planner, Log: log}
	routeHandler := &handlers.RouteHandler{Planner: planner, Log: log}
	healthHandler := &handlers.HealthHandler{DB: db, Log: log}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /optimize", optimizeHandler.Optimize)

	mux.HandleFunc("POST /routes", routeHandler.Create)
	mux.HandleFunc("GET /routes", routeHandler.List)
	mux.HandleFunc("GET /routes/{id}", routeHandler.Get)
	mux.HandleFunc("DELETE /routes/{id}", routeHandler.Delete)
	mux.HandleFunc("POST /routes/{id}/optimize", routeHandler.Optimize)
	mux.HandleFunc("POST /routes/{id}/stops", routeHandler.AddStop)
	mux.HandleFunc("DELETE /routes/{id}/stops/{stopID}", routeHandler.RemoveStop)
	mux.HandleFunc("PATCH /routes/{id}/stops/{stopID}", routeHandler.UpdateStop)

	return requestIDMiddleware(loggingMiddleware(log, mux))
}
