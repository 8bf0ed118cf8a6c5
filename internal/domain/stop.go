package domain

import (
	"time"

	"github.com/google/uuid"
)

// Represents a single delivery location on a route.
// Stops are identified by ID only; two stops may share an address or coordinates.
// SequenceNumber and EstimatedArrival are written by route optimization and are
// meaningless before it has run.
type Stop struct {
	ID               uuid.UUID
	Address          string
	Location         Coordinates
	Notes            string
	Status           DeliveryStatus
	SequenceNumber   int
	EstimatedArrival *time.Time
	ActualArrival    *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewStop(address string, loc Coordinates, notes string, now time.Time) Stop {
	return Stop{
		ID:        uuid.New(),
		Address:   address,
		Location:  loc,
		Notes:     notes,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateStatus moves the stop to a new delivery status and stamps the
// matching timestamps.
func (s *Stop) UpdateStatus(status DeliveryStatus, now time.Time) {
	s.Status = status
	s.UpdatedAt = now

	switch status {
	case StatusInProgress:
		if s.ActualArrival == nil {
			t := now
			s.ActualArrival = &t
		}
	case StatusDelivered:
		t := now
		s.CompletedAt = &t
	}
}
