package services

import (
	"context"
	"errors"
	"math"
	"routeflow/internal/adapters/geocode"
	"routeflow/internal/domain"
	"routeflow/internal/optimizer"
	"routeflow/internal/ports"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu     sync.Mutex
	routes map[uuid.UUID]domain.Route
	saves  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{routes: map[uuid.UUID]domain.Route{}}
}

func (m *memoryRepo) Save(_ context.Context, r *domain.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	cp.Stops = append([]domain.Stop(nil), r.Stops...)
	m.routes[r.ID] = cp
	m.saves++
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id uuid.UUID) (*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	r.Stops = append([]domain.Stop(nil), r.Stops...)
	return &r, nil
}

func (m *memoryRepo) List(_ context.Context) ([]*domain.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Route, 0, len(m.routes))
	for _, r := range m.routes {
		r := r
		out = append(out, &r)
	}
	return out, nil
}

func (m *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.routes[id]; !ok {
		return ports.ErrNotFound
	}
	delete(m.routes, id)
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]optimizer.Result
	gets    int
}

func (c *memoryCache) Get(_ context.Context, key string) (optimizer.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, res optimizer.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = res
	return nil
}

var depart = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func coords(lat, lon float64) *domain.Coordinates {
	return &domain.Coordinates{Lat: lat, Lon: lon}
}

func newPlanner(repo ports.RouteRepository, cache ports.OptimizationCache) *RoutePlanner {
	geocoder := geocode.NewStaticGeocoder(map[string]domain.Coordinates{
		"1 Market St":  {Lat: 37.7946, Lon: -122.3950},
		"Pier 39":      {Lat: 37.8087, Lon: -122.4098},
		"Ferry Bldg":   {Lat: 37.7955, Lon: -122.3937},
		"Union Square": {Lat: 37.7880, Lon: -122.4075},
	})
	p := NewRoutePlanner(repo, geocoder, cache, optimizer.New(optimizer.DefaultOptions(), nil), nil)
	p.now = func() time.Time { return depart }
	return p
}

func TestOptimizeStopsGeocodesAndOrders(t *testing.T) {
	p := newPlanner(newMemoryRepo(), nil)

	res, err := p.OptimizeStops(context.Background(), OptimizeStopsRequest{
		Stops: []StopInput{
			{Address: "Pier 39"},
			{Address: "Union Square"},
			{Address: "1 Market St", Notes: "buzz 4"},
		},
		Start: coords(37.7749, -122.4194),
	})
	require.NoError(t, err)
	require.Len(t, res.Stops, 3)

	for i, s := range res.Stops {
		assert.Equal(t, i+1, s.SequenceNumber)
		require.NotNil(t, s.EstimatedArrival)
		assert.True(t, s.EstimatedArrival.After(depart))
	}
	assert.Equal(t, "Union Square", res.Stops[0].Address)
	assert.LessOrEqual(t, res.TotalDistanceMeters, res.ConstructedDistanceMeters)
}

func TestOptimizeStopsPreconditions(t *testing.T) {
	p := newPlanner(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := p.OptimizeStops(ctx, OptimizeStopsRequest{Start: coords(0, 0)})
	require.ErrorIs(t, err, ErrNoStops)

	_, err = p.OptimizeStops(ctx, OptimizeStopsRequest{Stops: []StopInput{{Location: coords(1, 1)}}})
	require.ErrorIs(t, err, ErrStartRequired)

	_, err = p.OptimizeStops(ctx, OptimizeStopsRequest{
		Stops: []StopInput{{Location: coords(91, 1)}},
		Start: coords(0, 0),
	})
	require.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = p.OptimizeStops(ctx, OptimizeStopsRequest{
		Stops: []StopInput{{Notes: "no address"}},
		Start: coords(0, 0),
	})
	require.ErrorIs(t, err, ErrInvalidStop)

	_, err = p.OptimizeStops(ctx, OptimizeStopsRequest{
		Stops: []StopInput{{Address: "Atlantis"}},
		Start: coords(0, 0),
	})
	require.ErrorIs(t, err, geocode.ErrNoResults)
}

func TestOptimizeStopsUsesCache(t *testing.T) {
	cache := &memoryCache{entries: map[string]optimizer.Result{}}
	p := newPlanner(newMemoryRepo(), cache)
	ctx := context.Background()

	id1, id2 := uuid.New(), uuid.New()
	req := OptimizeStopsRequest{
		Stops: []StopInput{
			{ID: &id1, Location: coords(0, 2), Notes: "first"},
			{ID: &id2, Location: coords(0, 1)},
		},
		Start:     coords(0, 0),
		StartTime: depart,
	}

	first, err := p.OptimizeStops(ctx, req)
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	req.Stops[0].Notes = "changed"
	second, err := p.OptimizeStops(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, id2, second.Stops[0].ID)
	assert.Equal(t, first.TotalDistanceMeters, second.TotalDistanceMeters)
	assert.Equal(t, *first.Stops[1].EstimatedArrival, *second.Stops[1].EstimatedArrival)
	// Non-key fields come from the current request.
	assert.Equal(t, "changed", second.Stops[1].Notes)
}

func TestOptimizeStopsAbandonedOnCancel(t *testing.T) {
	p := newPlanner(newMemoryRepo(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stops := make([]StopInput, 0, 150)
	for i := range 150 {
		stops = append(stops, StopInput{Location: coords(float64(i%13)*0.01, float64(i%17)*0.01)})
	}

	_, err := p.OptimizeStops(ctx, OptimizeStopsRequest{Stops: stops, Start: coords(0, 0)})
	// The run may win the race for tiny inputs; with a cancelled ctx and a
	// large stop set the select sees Done first in practice.
	if err != nil {
		require.True(t, errors.Is(err, context.Canceled))
	}
}

func TestRouteLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	p := newPlanner(repo, nil)
	ctx := context.Background()

	route, err := p.CreateRoute(ctx, CreateRouteRequest{
		Name: "downtown",
		Stops: []StopInput{
			{Address: "Pier 39"},
			{Location: coords(37.7880, -122.4075)},
			{Address: "Ferry Bldg"},
		},
	})
	require.NoError(t, err)
	require.Len(t, route.Stops, 3)
	assert.False(t, route.IsOptimized)

	// No start stored and none given.
	_, _, err = p.OptimizeRoute(ctx, OptimizeRouteRequest{RouteID: route.ID})
	require.ErrorIs(t, err, ErrStartRequired)

	optimized, res, err := p.OptimizeRoute(ctx, OptimizeRouteRequest{
		RouteID:   route.ID,
		Start:     coords(37.7749, -122.4194),
		StartTime: depart,
	})
	require.NoError(t, err)
	assert.True(t, optimized.IsOptimized)
	assert.Equal(t, res.TotalDistanceMeters, optimized.TotalDistanceMeters)
	assert.Equal(t, res.TotalDurationSeconds, optimized.EstimatedDurationSeconds)
	require.NotNil(t, optimized.Start)

	stored, err := p.GetRoute(ctx, route.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsOptimized)
	for i, s := range stored.Stops {
		assert.Equal(t, i+1, s.SequenceNumber)
	}

	// The stored start is reused on the next run.
	_, _, err = p.OptimizeRoute(ctx, OptimizeRouteRequest{RouteID: route.ID})
	require.NoError(t, err)

	next := stored.NextStop()
	require.NotNil(t, next)
	updated, err := p.UpdateStopStatus(ctx, route.ID, next.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CompletedStops())

	_, err = p.UpdateStopStatus(ctx, route.ID, uuid.New(), domain.StatusDelivered)
	require.ErrorIs(t, err, ErrNotFound)

	added, err := p.AddStop(ctx, route.ID, StopInput{Address: "1 Market St"})
	require.NoError(t, err)
	assert.Len(t, added.Stops, 4)
	assert.False(t, added.IsOptimized)
	assert.Equal(t, 4, added.Stops[3].SequenceNumber)

	removed, err := p.RemoveStop(ctx, route.ID, added.Stops[0].ID)
	require.NoError(t, err)
	assert.Len(t, removed.Stops, 3)
	assert.Equal(t, 1, removed.Stops[0].SequenceNumber)

	require.NoError(t, p.DeleteRoute(ctx, route.ID))
	_, err = p.GetRoute(ctx, route.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOptimizeRouteWithoutStops(t *testing.T) {
	p := newPlanner(newMemoryRepo(), nil)
	ctx := context.Background()

	route, err := p.CreateRoute(ctx, CreateRouteRequest{Name: "empty", Start: coords(0, 0)})
	require.NoError(t, err)

	_, _, err = p.OptimizeRoute(ctx, OptimizeRouteRequest{RouteID: route.ID})
	require.ErrorIs(t, err, ErrNoStops)

	_, err = p.CreateRoute(ctx, CreateRouteRequest{Name: "  "})
	require.ErrorIs(t, err, ErrInvalidRoute)
}

func TestCacheKeyDependsOnInputs(t *testing.T) {
	stops := []domain.Stop{
		domain.NewStop("a", domain.Coordinates{Lat: 1, Lon: 1}, "", depart),
		domain.NewStop("b", domain.Coordinates{Lat: 2, Lon: 2}, "", depart),
	}
	start := domain.Coordinates{}
	opts := optimizer.DefaultOptions()

	base := cacheKey(stops, start, depart, opts)
	assert.Equal(t, base, cacheKey(stops, start, depart, opts))

	swapped := []domain.Stop{stops[1], stops[0]}
	assert.NotEqual(t, base, cacheKey(swapped, start, depart, opts))
	assert.NotEqual(t, base, cacheKey(stops, start, depart.Add(time.Second), opts))

	opts.DwellSeconds = 60
	assert.NotEqual(t, base, cacheKey(stops, start, depart, opts))
}

func TestCacheKeyDistinguishesFarStartTimes(t *testing.T) {
	stops := []domain.Stop{domain.NewStop("a", domain.Coordinates{Lat: 1, Lon: 1}, "", depart)}
	opts := optimizer.DefaultOptions()

	// 2^64 ns apart: identical once folded into a 64-bit nanosecond count.
	early := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(math.MaxInt64).Add(math.MaxInt64).Add(2)
	require.True(t, late.After(early))

	assert.NotEqual(t,
		cacheKey(stops, domain.Coordinates{}, early, opts),
		cacheKey(stops, domain.Coordinates{}, late, opts),
	)
}
