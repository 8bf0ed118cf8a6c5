package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteApplyOptimization(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	route := NewRoute("morning", now)

	a := NewStop("A", Coordinates{Lat: 37.80, Lon: -122.41}, "", now)
	b := NewStop("B", Coordinates{Lat: 37.79, Lon: -122.40}, "", now)
	route.AddStop(a, now)
	route.AddStop(b, now)

	b.SequenceNumber = 1
	a.SequenceNumber = 2
	later := now.Add(time.Minute)
	route.ApplyOptimization(OptimizationSummary{
		Stops:                []Stop{b, a},
		Start:                Coordinates{Lat: 37.77, Lon: -122.42},
		TotalDistanceMeters:  4200,
		TotalDurationSeconds: 673,
	}, later)

	require.True(t, route.IsOptimized)
	require.NotNil(t, route.Start)
	assert.Equal(t, 37.77, route.Start.Lat)
	assert.Equal(t, b.ID, route.Stops[0].ID)
	assert.Equal(t, 4200.0, route.TotalDistanceMeters)
	assert.Equal(t, later, route.UpdatedAt)

	// Changing the stop set invalidates the optimization.
	require.NoError(t, route.RemoveStop(a.ID, later))
	assert.False(t, route.IsOptimized)
	assert.Zero(t, route.TotalDistanceMeters)
	assert.Len(t, route.Stops, 1)
}

func TestRouteRemoveUnknownStop(t *testing.T) {
	route := NewRoute("r", time.Now())
	err := route.RemoveStop(uuid.New(), time.Now())
	require.ErrorIs(t, err, ErrStopNotFound)
}

func TestRouteProgressAndNextStop(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	route := NewRoute("r", now)
	assert.Zero(t, route.Progress())
	assert.Nil(t, route.NextStop())

	for _, addr := range []string{"A", "B", "C", "D"} {
		route.AddStop(NewStop(addr, Coordinates{}, "", now), now)
	}

	route.Stops[0].UpdateStatus(StatusDelivered, now)
	route.Stops[1].UpdateStatus(StatusSkipped, now)

	assert.Equal(t, 1, route.CompletedStops())
	assert.InDelta(t, 0.25, route.Progress(), 1e-9)

	next := route.NextStop()
	require.NotNil(t, next)
	assert.Equal(t, "C", next.Address)
}

func TestStopUpdateStatus(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s := NewStop("A", Coordinates{}, "leave at door", now)
	assert.Equal(t, StatusPending, s.Status)

	arrived := now.Add(10 * time.Minute)
	s.UpdateStatus(StatusInProgress, arrived)
	require.NotNil(t, s.ActualArrival)
	assert.Equal(t, arrived, *s.ActualArrival)
	assert.Nil(t, s.CompletedAt)

	done := arrived.Add(2 * time.Minute)
	s.UpdateStatus(StatusDelivered, done)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, done, *s.CompletedAt)
	assert.Equal(t, arrived, *s.ActualArrival)
	assert.Equal(t, done, s.UpdatedAt)
}

func TestParseDeliveryStatus(t *testing.T) {
	st, err := ParseDeliveryStatus("delivered")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, st)

	_, err = ParseDeliveryStatus("lost")
	require.Error(t, err)
}

func TestCoordinatesValid(t *testing.T) {
	assert.True(t, Coordinates{Lat: 90, Lon: -180}.Valid())
	assert.False(t, Coordinates{Lat: 90.1, Lon: 0}.Valid())
	assert.False(t, Coordinates{Lat: 0, Lon: 181}.Valid())
	assert.Equal(t, []float64{-122.42, 37.77}, Coordinates{Lat: 37.77, Lon: -122.42}.CoordsToList())
}
