package ports

import (
	"context"
	"errors"
	"routeflow/internal/domain"
)

// Returned (wrapped) by a Geocoder when an address has no match.
var ErrAddressNotFound = errors.New("address not found")

// Contract for resolving free-text addresses to coordinates.
type Geocoder interface {
	// Resolve every address. The result is keyed by the address as given;
	// an address that cannot be resolved is an error.
	GeocodeMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
}

// Persistent address -> coordinate lookup used in front of a Geocoder.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}
