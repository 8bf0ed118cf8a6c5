package ports

import (
	"context"
	"errors"
	"routeflow/internal/domain"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// Port: a boundary for storing Route aggregates together with their stops.
type RouteRepository interface {
	// Insert or replace the route and its full stop list.
	Save(ctx context.Context, route *domain.Route) error
	// Return the route with stops in sequence order, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.Route, error)
	List(ctx context.Context) ([]*domain.Route, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
