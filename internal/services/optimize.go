package services

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"routeflow/internal/domain"
	"routeflow/internal/optimizer"
	"routeflow/internal/platform/metrics"
	"routeflow/internal/platform/obs"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OptimizeStopsRequest struct {
	Stops     []StopInput
	Start     *domain.Coordinates
	StartTime time.Time
}

// OptimizeStops orders an ad-hoc stop set without storing anything.
func (p *RoutePlanner) OptimizeStops(ctx context.Context, req OptimizeStopsRequest) (_ *optimizer.Result, err error) {
	defer obs.Time(ctx, p.log, "services.OptimizeStops")(&err)

	if len(req.Stops) == 0 {
		return nil, fmt.Errorf("optimize stops: %w", ErrNoStops)
	}
	if req.Start == nil {
		return nil, fmt.Errorf("optimize stops: %w", ErrStartRequired)
	}
	if !req.Start.Valid() {
		return nil, fmt.Errorf("optimize stops: start %v: %w", *req.Start, ErrInvalidCoordinates)
	}

	stops, err := resolveStops(ctx, req.Stops, p.Geocoder, p.now())
	if err != nil {
		return nil, fmt.Errorf("optimize stops: %w", err)
	}

	startTime := req.StartTime
	if startTime.IsZero() {
		startTime = p.now()
	}

	res, err := p.runOptimizer(ctx, stops, *req.Start, startTime)
	if err != nil {
		return nil, fmt.Errorf("optimize stops: %w", err)
	}
	return &res, nil
}

// runOptimizer consults the result cache and otherwise runs the engine on its
// own goroutine. The engine cannot be interrupted; when ctx ends first the run
// is abandoned and its result discarded.
func (p *RoutePlanner) runOptimizer(
	ctx context.Context,
	stops []domain.Stop,
	start domain.Coordinates,
	startTime time.Time,
) (optimizer.Result, error) {
	key := cacheKey(stops, start, startTime, p.Optimizer.Options())

	if p.Cache != nil {
		res, ok, err := p.Cache.Get(ctx, key)
		switch {
		case err != nil:
			p.log.Warn("optimization cache read failed", zap.String("req_id", obs.RequestID(ctx)), zap.Error(err))
		case ok:
			metrics.CacheHits.WithLabelValues("optimization").Inc()
			return withCurrentStops(res, stops), nil
		default:
			metrics.CacheMisses.WithLabelValues("optimization").Inc()
		}
	}

	began := time.Now()
	done := make(chan optimizer.Result, 1)
	go func() {
		done <- p.Optimizer.Optimize(stops, start, startTime)
	}()

	var res optimizer.Result
	select {
	case res = <-done:
	case <-ctx.Done():
		metrics.OptimizeAbandoned.Inc()
		return optimizer.Result{}, fmt.Errorf("run optimizer over %d stops: %w", len(stops), ctx.Err())
	}

	metrics.OptimizeDuration.Observe(time.Since(began).Seconds())
	metrics.OptimizeStops.Observe(float64(len(stops)))
	metrics.OptimizePasses.Observe(float64(res.Passes))
	if res.Truncated {
		metrics.OptimizeTruncated.Inc()
	}

	if p.Cache != nil {
		if err := p.Cache.Set(ctx, key, res); err != nil {
			p.log.Warn("optimization cache write failed", zap.String("req_id", obs.RequestID(ctx)), zap.Error(err))
		}
	}

	return res, nil
}

// withCurrentStops rebuilds a cached result from the caller's stop records so
// fields outside the key (address, notes, status) are never stale. Only the
// order, sequence numbers and ETAs come from the cache.
func withCurrentStops(cached optimizer.Result, stops []domain.Stop) optimizer.Result {
	byID := make(map[uuid.UUID]domain.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}

	out := cached
	out.Stops = make([]domain.Stop, 0, len(cached.Stops))
	for _, c := range cached.Stops {
		s := byID[c.ID]
		s.SequenceNumber = c.SequenceNumber
		s.EstimatedArrival = c.EstimatedArrival
		out.Stops = append(out.Stops, s)
	}
	return out
}

// cacheKey fingerprints everything the engine's output depends on: stop ids
// and coordinates in input order, the start, the start time and the options.
func cacheKey(stops []domain.Stop, start domain.Coordinates, startTime time.Time, opts optimizer.Options) string {
	h := xxhash.New()
	var buf [8]byte

	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
		_, _ = h.Write(buf[:])
	}

	writeFloat(start.Lat)
	writeFloat(start.Lon)
	// UnixNano overflows outside 1678-2262; hash seconds and nanos apart.
	binary.LittleEndian.PutUint64(buf[:], uint64(startTime.Unix()))
	_, _ = h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(startTime.Nanosecond()))
	_, _ = h.Write(buf[:])
	writeFloat(opts.AverageSpeedMetersPerSecond)
	writeFloat(opts.DwellSeconds)
	binary.LittleEndian.PutUint64(buf[:], uint64(opts.MaxPasses))
	_, _ = h.Write(buf[:])

	for _, s := range stops {
		_, _ = h.Write(s.ID[:])
		writeFloat(s.Location.Lat)
		writeFloat(s.Location.Lon)
	}

	return strconv.FormatUint(h.Sum64(), 16) + ":" + strconv.Itoa(len(stops))
}
