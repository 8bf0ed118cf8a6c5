package optimizer

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"routeflow/internal/domain"
	"routeflow/internal/geo"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func makeStops(coords ...domain.Coordinates) []domain.Stop {
	stops := make([]domain.Stop, 0, len(coords))
	for _, c := range coords {
		stops = append(stops, domain.NewStop("", c, "", startTime))
	}
	return stops
}

func ids(stops []domain.Stop) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.ID)
	}
	return out
}

func locations(stops []domain.Stop) []domain.Coordinates {
	out := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Location)
	}
	return out
}

func randomStops(r *rand.Rand, n int) []domain.Stop {
	coords := make([]domain.Coordinates, 0, n)
	for range n {
		coords = append(coords, domain.Coordinates{
			Lat: 37.70 + r.Float64()*0.15,
			Lon: -122.50 + r.Float64()*0.15,
		})
	}
	return makeStops(coords...)
}

func TestOptimizeEmpty(t *testing.T) {
	res := New(DefaultOptions(), nil).Optimize(nil, domain.Coordinates{Lat: 37.77, Lon: -122.42}, startTime)

	require.NotNil(t, res.Stops)
	assert.Empty(t, res.Stops)
	assert.Zero(t, res.TotalDistanceMeters)
	assert.Zero(t, res.TotalDurationSeconds)
	assert.Zero(t, res.Passes)
}

func TestOptimizeSingleStop(t *testing.T) {
	start := domain.Coordinates{Lat: 37.77, Lon: -122.42}
	stops := makeStops(domain.Coordinates{Lat: 37.80, Lon: -122.41})

	res := New(DefaultOptions(), nil).Optimize(stops, start, startTime)

	require.Len(t, res.Stops, 1)
	got := res.Stops[0]
	assert.Equal(t, stops[0].ID, got.ID)
	assert.Equal(t, 1, got.SequenceNumber)
	assert.Zero(t, res.Passes)

	dist := geo.Distance(start, stops[0].Location)
	want := startTime.Add(time.Duration(dist / 13.4 * float64(time.Second))).Add(180 * time.Second)
	require.NotNil(t, got.EstimatedArrival)
	assert.WithinDuration(t, want, *got.EstimatedArrival, time.Microsecond)
	assert.Equal(t, dist, res.TotalDistanceMeters)
	assert.InDelta(t, dist/13.4+180, res.TotalDurationSeconds, 1e-6)
}

func TestOptimizeCollinearKeepsOrder(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: -1}
	a := domain.Coordinates{Lat: 0, Lon: 0}
	b := domain.Coordinates{Lat: 0, Lon: 1}
	c := domain.Coordinates{Lat: 0, Lon: 2}
	stops := makeStops(a, b, c)

	res := New(DefaultOptions(), nil).Optimize(stops, start, startTime)

	assert.Equal(t, ids(stops), ids(res.Stops))
	assert.Zero(t, res.Swaps)
	assert.Equal(t, 1, res.Passes)

	want := geo.Distance(start, a) + geo.Distance(a, b) + geo.Distance(b, c)
	assert.Equal(t, want, res.TotalDistanceMeters)
	assert.Equal(t, res.ConstructedDistanceMeters, res.TotalDistanceMeters)
}

func TestOptimizeRemovesCrossing(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	stops := makeStops(
		domain.Coordinates{Lat: 0, Lon: 1},  // A
		domain.Coordinates{Lat: 0, Lon: 2},  // B
		domain.Coordinates{Lat: 1, Lon: 0},  // C
		domain.Coordinates{Lat: -1, Lon: 1}, // D
	)
	coords := locations(stops)

	// Greedy construction doubles back across its own path: A, B, D, C.
	nn := NearestNeighbor(start, coords)
	require.Equal(t, []int{0, 1, 3, 2}, nn)

	res := New(DefaultOptions(), nil).Optimize(stops, start, startTime)

	assert.Less(t, res.TotalDistanceMeters, res.ConstructedDistanceMeters)
	assert.Equal(t, []uuid.UUID{stops[2].ID, stops[0].ID, stops[1].ID, stops[3].ID}, ids(res.Stops))
	assert.Equal(t, 2, res.Passes)
	assert.Equal(t, 2, res.Swaps)
	assert.False(t, res.Truncated)
}

func TestOptimizePassBudget(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	stops := makeStops(
		domain.Coordinates{Lat: 0, Lon: 1},
		domain.Coordinates{Lat: 0, Lon: 2},
		domain.Coordinates{Lat: 1, Lon: 0},
		domain.Coordinates{Lat: -1, Lon: 1},
	)

	opts := DefaultOptions()
	opts.MaxPasses = 1
	res := New(opts, nil).Optimize(stops, start, startTime)

	assert.Equal(t, 1, res.Passes)
	assert.True(t, res.Truncated)
	assert.Less(t, res.TotalDistanceMeters, res.ConstructedDistanceMeters)
}

func TestNearestNeighborTieGoesToFirstScanned(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	east := domain.Coordinates{Lat: 0, Lon: 1}
	west := domain.Coordinates{Lat: 0, Lon: -1}

	assert.Equal(t, []int{0, 1}, NearestNeighbor(start, []domain.Coordinates{east, west}))
	assert.Equal(t, []int{0, 1}, NearestNeighbor(start, []domain.Coordinates{west, east}))

	// Equal-length reversal is rejected, so the tie order survives 2-opt.
	stops := makeStops(west, east)
	res := New(DefaultOptions(), nil).Optimize(stops, start, startTime)
	assert.Equal(t, ids(stops), ids(res.Stops))
	assert.Zero(t, res.Swaps)
}

func TestNearestNeighborEmpty(t *testing.T) {
	assert.Empty(t, NearestNeighbor(domain.Coordinates{}, nil))
}

func TestTwoOptDoesNotModifyInput(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	coords := []domain.Coordinates{{Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}, {Lat: 1, Lon: 0}, {Lat: -1, Lon: 1}}
	order := []int{0, 1, 3, 2}

	improved, stats := TwoOpt(start, coords, order, 0)

	assert.Equal(t, []int{0, 1, 3, 2}, order)
	assert.Equal(t, []int{2, 0, 1, 3}, improved)
	assert.Equal(t, geo.PathDistance(start, []domain.Coordinates{coords[2], coords[0], coords[1], coords[3]}), stats.DistanceMeters)
}

func TestOptimizeProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 42))
	opt := New(DefaultOptions(), nil)
	start := domain.Coordinates{Lat: 37.77, Lon: -122.42}

	for _, n := range []int{0, 1, 2, 3, 5, 8, 13, 25} {
		stops := randomStops(r, n)
		before := slices.Clone(stops)

		res := opt.Optimize(stops, start, startTime)

		// Input is untouched.
		assert.Equal(t, before, stops)

		// Permutation of the input ids.
		got := ids(res.Stops)
		want := ids(stops)
		slices.SortFunc(got, compareUUID)
		slices.SortFunc(want, compareUUID)
		assert.Equal(t, want, got, "n=%d", n)

		// Sequence numbers are 1..n in order.
		for i, s := range res.Stops {
			assert.Equal(t, i+1, s.SequenceNumber)
		}

		// Local search never makes the constructed tour worse.
		assert.LessOrEqual(t, res.TotalDistanceMeters, res.ConstructedDistanceMeters)
		assert.Equal(t, geo.PathDistance(start, locations(res.Stops)), res.TotalDistanceMeters)

		// ETAs strictly increase.
		for i := 1; i < len(res.Stops); i++ {
			assert.True(t, res.Stops[i].EstimatedArrival.After(*res.Stops[i-1].EstimatedArrival))
		}

		// Same input, same output.
		again := opt.Optimize(stops, start, startTime)
		assert.Equal(t, res, again)
	}
}

func compareUUID(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}

func TestPropagateETAsZeroLengthLegs(t *testing.T) {
	here := domain.Coordinates{Lat: 37.77, Lon: -122.42}
	stops := makeStops(here, here, here)

	total := PropagateETAs(stops, here, startTime, DefaultOptions())

	for i, s := range stops {
		require.NotNil(t, s.EstimatedArrival)
		assert.Equal(t, startTime.Add(time.Duration(i+1)*180*time.Second), *s.EstimatedArrival)
	}
	assert.Equal(t, 9*time.Minute, total)
}

func TestPropagateETAsUsesConfiguredSpeed(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	stops := makeStops(domain.Coordinates{Lat: 0, Lon: 1})
	opts := Options{AverageSpeedMetersPerSecond: 10, DwellSeconds: 60}

	PropagateETAs(stops, start, startTime, opts)

	legSeconds := geo.Distance(start, stops[0].Location) / 10
	want := startTime.Add(time.Duration(legSeconds*float64(time.Second)) + time.Minute)
	assert.WithinDuration(t, want, *stops[0].EstimatedArrival, time.Microsecond)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	err := Options{AverageSpeedMetersPerSecond: 0, DwellSeconds: -1, MaxPasses: -2}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "averageSpeedMetersPerSecond")
	assert.Contains(t, err.Error(), "dwellSeconds")
	assert.Contains(t, err.Error(), "maxPasses")

	zeroDwell := DefaultOptions()
	zeroDwell.DwellSeconds = 0
	err = zeroDwell.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dwellSeconds")
}
