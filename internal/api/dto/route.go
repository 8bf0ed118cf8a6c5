package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateRouteRequest struct {
	Name  string        `json:"name"`
	Start *Coordinates  `json:"start"`
	Stops []StopRequest `json:"stops"`
}

type OptimizeRouteRequest struct {
	Start     *Coordinates `json:"start"`
	StartTime *time.Time   `json:"start_time"`
}

type RouteResponse struct {
	ID                       uuid.UUID      `json:"id"`
	Name                     string         `json:"name"`
	IsOptimized              bool           `json:"is_optimized"`
	TotalDistanceMeters      float64        `json:"total_distance_meters"`
	EstimatedDurationSeconds float64        `json:"estimated_duration_seconds"`
	Start                    *Coordinates   `json:"start"`
	CompletedStops           int            `json:"completed_stops"`
	Progress                 float64        `json:"progress"`
	NextStopID               *uuid.UUID     `json:"next_stop_id"`
	Stops                    []StopResponse `json:"stops"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}

type OptimizeRouteResponse struct {
	Route     RouteResponse `json:"route"`
	Passes    int           `json:"passes"`
	Swaps     int           `json:"swaps"`
	Truncated bool          `json:"truncated"`
}
