package dto

import (
	"time"

	"github.com/google/uuid"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// StopRequest describes a stop by coordinates, by address, or both.
// Lat and Lon must be given together.
type StopRequest struct {
	ID      *uuid.UUID `json:"id,omitempty"`
	Address string     `json:"address,omitempty"`
	Lat     *float64   `json:"lat,omitempty"`
	Lon     *float64   `json:"lon,omitempty"`
	Notes   string     `json:"notes,omitempty"`
}

type StopResponse struct {
	ID               uuid.UUID  `json:"id"`
	Address          string     `json:"address"`
	Lat              float64    `json:"lat"`
	Lon              float64    `json:"lon"`
	Notes            string     `json:"notes"`
	Status           string     `json:"status"`
	SequenceNumber   int        `json:"sequence_number"`
	EstimatedArrival *time.Time `json:"estimated_arrival"`
	ActualArrival    *time.Time `json:"actual_arrival"`
	CompletedAt      *time.Time `json:"completed_at"`
}

type UpdateStopRequest struct {
	Status string `json:"status"`
}
