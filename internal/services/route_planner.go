package services

import (
	"context"
	"fmt"
	"routeflow/internal/domain"
	"routeflow/internal/optimizer"
	"routeflow/internal/platform/obs"
	"routeflow/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoutePlanner implements the route use cases on top of the optimizer and
// the storage, geocoding and cache ports. Geocoder and Cache are optional.
type RoutePlanner struct {
	Repo      ports.RouteRepository
	Geocoder  ports.Geocoder
	Cache     ports.OptimizationCache
	Optimizer *optimizer.Optimizer

	log *zap.Logger
	now func() time.Time
}

func NewRoutePlanner(
	repo ports.RouteRepository,
	geocoder ports.Geocoder,
	cache ports.OptimizationCache,
	opt *optimizer.Optimizer,
	log *zap.Logger,
) *RoutePlanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoutePlanner{
		Repo:      repo,
		Geocoder:  geocoder,
		Cache:     cache,
		Optimizer: opt,
		log:       log.Named("planner"),
		now:       time.Now,
	}
}

type CreateRouteRequest struct {
	Name  string
	Start *domain.Coordinates
	Stops []StopInput
}

func (p *RoutePlanner) CreateRoute(ctx context.Context, req CreateRouteRequest) (_ *domain.Route, err error) {
	defer obs.Time(ctx, p.log, "services.CreateRoute")(&err)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("create route: %w", ErrInvalidRoute)
	}

	now := p.now()
	route := domain.NewRoute(name, now)

	if req.Start != nil {
		if !req.Start.Valid() {
			return nil, fmt.Errorf("create route: start %v: %w", *req.Start, ErrInvalidCoordinates)
		}
		route.SetStart(*req.Start, now)
	}

	stops, err := resolveStops(ctx, req.Stops, p.Geocoder, now)
	if err != nil {
		return nil, fmt.Errorf("create route: %w", err)
	}
	for i, s := range stops {
		s.SequenceNumber = i + 1
		route.AddStop(s, now)
	}

	if err := p.Repo.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("create route: save: %w", err)
	}
	return route, nil
}

func (p *RoutePlanner) GetRoute(ctx context.Context, id uuid.UUID) (*domain.Route, error) {
	route, err := p.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get route %s: %w", id, err)
	}
	return route, nil
}

func (p *RoutePlanner) ListRoutes(ctx context.Context) ([]*domain.Route, error) {
	routes, err := p.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	return routes, nil
}

func (p *RoutePlanner) DeleteRoute(ctx context.Context, id uuid.UUID) error {
	if err := p.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete route %s: %w", id, err)
	}
	return nil
}

// AddStop appends a stop to a stored route. The route must be optimized again
// before its sequence numbers and ETAs are meaningful.
func (p *RoutePlanner) AddStop(ctx context.Context, routeID uuid.UUID, in StopInput) (_ *domain.Route, err error) {
	defer obs.Time(ctx, p.log, "services.AddStop")(&err)

	route, err := p.Repo.Get(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("add stop: route %s: %w", routeID, err)
	}

	now := p.now()
	stops, err := resolveStops(ctx, []StopInput{in}, p.Geocoder, now)
	if err != nil {
		return nil, fmt.Errorf("add stop: %w", err)
	}
	s := stops[0]
	if _, err := route.Stop(s.ID); err == nil {
		return nil, fmt.Errorf("add stop: route %s stop %s: %w", routeID, s.ID, ErrDuplicateStop)
	}
	s.SequenceNumber = len(route.Stops) + 1
	route.AddStop(s, now)

	if err := p.Repo.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("add stop: save: %w", err)
	}
	return route, nil
}

func (p *RoutePlanner) RemoveStop(ctx context.Context, routeID, stopID uuid.UUID) (_ *domain.Route, err error) {
	defer obs.Time(ctx, p.log, "services.RemoveStop")(&err)

	route, err := p.Repo.Get(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("remove stop: route %s: %w", routeID, err)
	}

	if err := route.RemoveStop(stopID, p.now()); err != nil {
		return nil, fmt.Errorf("remove stop: %w", ErrNotFound)
	}
	for i := range route.Stops {
		route.Stops[i].SequenceNumber = i + 1
	}

	if err := p.Repo.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("remove stop: save: %w", err)
	}
	return route, nil
}

type OptimizeRouteRequest struct {
	RouteID uuid.UUID
	// Falls back to the route's stored start when nil.
	Start *domain.Coordinates
	// Falls back to the current time when zero.
	StartTime time.Time
}

// OptimizeRoute reorders a stored route's stops, replaces them wholesale with
// the optimized records and persists the route summary.
func (p *RoutePlanner) OptimizeRoute(
	ctx context.Context,
	req OptimizeRouteRequest,
) (_ *domain.Route, _ *optimizer.Result, err error) {
	defer obs.Time(ctx, p.log, "services.OptimizeRoute")(&err)

	route, err := p.Repo.Get(ctx, req.RouteID)
	if err != nil {
		return nil, nil, fmt.Errorf("optimize route %s: %w", req.RouteID, err)
	}

	if len(route.Stops) == 0 {
		return nil, nil, fmt.Errorf("optimize route %s: %w", req.RouteID, ErrNoStops)
	}

	start := route.Start
	if req.Start != nil {
		start = req.Start
	}
	if start == nil {
		return nil, nil, fmt.Errorf("optimize route %s: %w", req.RouteID, ErrStartRequired)
	}
	if !start.Valid() {
		return nil, nil, fmt.Errorf("optimize route %s: start %v: %w", req.RouteID, *start, ErrInvalidCoordinates)
	}

	startTime := req.StartTime
	if startTime.IsZero() {
		startTime = p.now()
	}

	res, err := p.runOptimizer(ctx, route.Stops, *start, startTime)
	if err != nil {
		return nil, nil, fmt.Errorf("optimize route %s: %w", req.RouteID, err)
	}

	route.ApplyOptimization(domain.OptimizationSummary{
		Stops:                res.Stops,
		Start:                *start,
		TotalDistanceMeters:  res.TotalDistanceMeters,
		TotalDurationSeconds: res.TotalDurationSeconds,
	}, p.now())

	if err := p.Repo.Save(ctx, route); err != nil {
		return nil, nil, fmt.Errorf("optimize route %s: save: %w", req.RouteID, err)
	}

	p.log.Info("route optimized",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.Stringer("route_id", route.ID),
		zap.Int("stops", len(route.Stops)),
		zap.Float64("distance_m", res.TotalDistanceMeters),
		zap.Float64("saved_m", res.InitialDistanceMeters-res.TotalDistanceMeters),
	)

	return route, &res, nil
}

func (p *RoutePlanner) UpdateStopStatus(
	ctx context.Context,
	routeID, stopID uuid.UUID,
	status domain.DeliveryStatus,
) (_ *domain.Route, err error) {
	defer obs.Time(ctx, p.log, "services.UpdateStopStatus")(&err)

	route, err := p.Repo.Get(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("update stop status: route %s: %w", routeID, err)
	}

	stop, err := route.Stop(stopID)
	if err != nil {
		return nil, fmt.Errorf("update stop status: %w", ErrNotFound)
	}

	now := p.now()
	stop.UpdateStatus(status, now)
	route.UpdatedAt = now

	if err := p.Repo.Save(ctx, route); err != nil {
		return nil, fmt.Errorf("update stop status: save: %w", err)
	}
	return route, nil
}
