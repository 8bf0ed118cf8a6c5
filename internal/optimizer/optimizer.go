// Package optimizer orders delivery stops to shorten the driven distance and
// derives per-stop arrival estimates.
//
// The engine is a nearest-neighbour construction refined by 2-opt, followed by
// ETA propagation. It is a heuristic: results are deterministic but not
// guaranteed optimal. It has no internal concurrency and no cancellation; a
// caller that needs either runs Optimize on its own goroutine and drops stale
// results.
package optimizer

import (
	"time"

	"routeflow/internal/domain"
	"routeflow/internal/geo"

	"go.uber.org/zap"
)

// Result is the optimized, timestamped copy of the input stops plus summary
// figures for the route.
type Result struct {
	Stops                []domain.Stop
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	// Path length of the stops in the order they were supplied.
	InitialDistanceMeters float64
	// Path length after nearest-neighbour construction, before 2-opt.
	ConstructedDistanceMeters float64
	Passes                    int
	Swaps                     int
	Truncated                 bool
}

// Optimizer is safe for concurrent use; it holds no per-call state.
type Optimizer struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{opts: opts, logger: logger.Named("optimizer")}
}

func (o *Optimizer) Options() Options { return o.opts }

// Optimize orders stops starting from start and stamps sequence numbers
// (1..n) and ETAs beginning at startTime.
//
// The caller's slice is left untouched; the returned stops are copies. Zero
// stops produce an empty result. A single stop skips the ordering phases but
// still gets an ETA.
func (o *Optimizer) Optimize(stops []domain.Stop, start domain.Coordinates, startTime time.Time) Result {
	n := len(stops)
	if n == 0 {
		return Result{Stops: []domain.Stop{}}
	}

	began := time.Now()

	coords := make([]domain.Coordinates, n)
	for i, s := range stops {
		coords[i] = s.Location
	}

	res := Result{InitialDistanceMeters: geo.PathDistance(start, coords)}

	order := []int{0}
	if n > 1 {
		order = NearestNeighbor(start, coords)
		res.ConstructedDistanceMeters = newDistanceMatrix(start, coords).pathLength(order)

		var stats TwoOptStats
		order, stats = TwoOpt(start, coords, order, o.opts.MaxPasses)
		res.Passes = stats.Passes
		res.Swaps = stats.Swaps
		res.Truncated = stats.Truncated
	} else {
		res.ConstructedDistanceMeters = res.InitialDistanceMeters
	}

	res.Stops = make([]domain.Stop, n)
	ordered := make([]domain.Coordinates, n)
	for pos, idx := range order {
		s := stops[idx]
		s.SequenceNumber = pos + 1
		res.Stops[pos] = s
		ordered[pos] = coords[idx]
	}

	res.TotalDistanceMeters = geo.PathDistance(start, ordered)
	res.TotalDurationSeconds = PropagateETAs(res.Stops, start, startTime, o.opts).Seconds()

	if res.Truncated {
		o.logger.Warn("2-opt stopped at pass budget",
			zap.Int("stops", n),
			zap.Int("max_passes", o.opts.MaxPasses),
		)
	}

	o.logger.Debug("route optimized",
		zap.Int("stops", n),
		zap.Float64("initial_m", res.InitialDistanceMeters),
		zap.Float64("constructed_m", res.ConstructedDistanceMeters),
		zap.Float64("total_m", res.TotalDistanceMeters),
		zap.Int("passes", res.Passes),
		zap.Int("swaps", res.Swaps),
		zap.Duration("elapsed", time.Since(began)),
	)

	return res
}
