package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

var ErrStopNotFound = errors.New("stop not found")

// Route aggregates the stops of one delivery run together with the summary
// produced by the last optimization.
type Route struct {
	ID                       uuid.UUID
	Name                     string
	Stops                    []Stop
	IsOptimized              bool
	TotalDistanceMeters      float64
	EstimatedDurationSeconds float64
	Start                    *Coordinates
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Summary of a finished optimization run, applied to a Route.
type OptimizationSummary struct {
	Stops                []Stop
	Start                Coordinates
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
}

func NewRoute(name string, now time.Time) *Route {
	return &Route{
		ID:        uuid.New(),
		Name:      name,
		Stops:     []Stop{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddStop appends a stop. Any previous optimization is invalidated.
func (r *Route) AddStop(s Stop, now time.Time) {
	r.Stops = append(r.Stops, s)
	r.invalidate(now)
}

// RemoveStop deletes the stop with the given id.
func (r *Route) RemoveStop(id uuid.UUID, now time.Time) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("remove stop %s: %w", id, ErrStopNotFound)
	}
	r.Stops = slices.Delete(r.Stops, idx, idx+1)
	r.invalidate(now)
	return nil
}

// Stop returns a pointer into the route's stop list.
func (r *Route) Stop(id uuid.UUID) (*Stop, error) {
	idx := r.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("find stop %s: %w", id, ErrStopNotFound)
	}
	return &r.Stops[idx], nil
}

func (r *Route) SetStart(c Coordinates, now time.Time) {
	r.Start = &c
	r.UpdatedAt = now
}

// ApplyOptimization replaces the stop list wholesale with the optimized order.
func (r *Route) ApplyOptimization(s OptimizationSummary, now time.Time) {
	r.Stops = s.Stops
	start := s.Start
	r.Start = &start
	r.TotalDistanceMeters = s.TotalDistanceMeters
	r.EstimatedDurationSeconds = s.TotalDurationSeconds
	r.IsOptimized = true
	r.UpdatedAt = now
}

func (r *Route) CompletedStops() int {
	n := 0
	for _, s := range r.Stops {
		if s.Status == StatusDelivered {
			n++
		}
	}
	return n
}

// Progress returns the delivered fraction in [0, 1].
func (r *Route) Progress() float64 {
	if len(r.Stops) == 0 {
		return 0
	}
	return float64(r.CompletedStops()) / float64(len(r.Stops))
}

// NextStop returns the first stop, in route order, that is still pending or in progress.
func (r *Route) NextStop() *Stop {
	for i := range r.Stops {
		if r.Stops[i].Status.Active() {
			return &r.Stops[i]
		}
	}
	return nil
}

func (r *Route) indexOf(id uuid.UUID) int {
	return slices.IndexFunc(r.Stops, func(s Stop) bool { return s.ID == id })
}

func (r *Route) invalidate(now time.Time) {
	r.IsOptimized = false
	r.TotalDistanceMeters = 0
	r.EstimatedDurationSeconds = 0
	r.UpdatedAt = now
}
