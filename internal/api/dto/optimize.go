package dto

import "time"

type OptimizeRequest struct {
	Stops     []StopRequest `json:"stops"`
	Start     *Coordinates  `json:"start"`
	StartTime *time.Time    `json:"start_time"`
}

type OptimizeResponse struct {
	Stops                 []StopResponse `json:"stops"`
	TotalDistanceMeters   float64        `json:"total_distance_meters"`
	TotalDurationSeconds  float64        `json:"total_duration_seconds"`
	InitialDistanceMeters float64        `json:"initial_distance_meters"`
	Passes                int            `json:"passes"`
	Swaps                 int            `json:"swaps"`
	Truncated             bool           `json:"truncated"`
}
