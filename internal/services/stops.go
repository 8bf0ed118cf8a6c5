package services

import (
	"context"
	"fmt"
	"routeflow/internal/domain"
	"routeflow/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StopInput is a stop as supplied by a client. Either Location or Address
// must be set; an address without a location is resolved through the Geocoder.
type StopInput struct {
	ID       *uuid.UUID
	Address  string
	Location *domain.Coordinates
	Notes    string
}

// resolveStops turns inputs into domain stops, geocoding the ones that came
// without coordinates in a single batch.
func resolveStops(
	ctx context.Context,
	inputs []StopInput,
	geocoder ports.Geocoder,
	now time.Time,
) ([]domain.Stop, error) {
	pending := make([]string, 0)
	for i, in := range inputs {
		addr := strings.TrimSpace(in.Address)
		if in.Location == nil {
			if addr == "" {
				return nil, fmt.Errorf("resolve stops: stop #%d: %w", i+1, ErrInvalidStop)
			}
			pending = append(pending, addr)
			continue
		}
		if !in.Location.Valid() {
			return nil, fmt.Errorf("resolve stops: stop #%d (%v): %w", i+1, *in.Location, ErrInvalidCoordinates)
		}
	}

	resolved := map[string]domain.Coordinates{}
	if len(pending) > 0 {
		if geocoder == nil {
			return nil, fmt.Errorf("resolve stops: %d stops need geocoding but no geocoder is configured: %w", len(pending), ErrInvalidStop)
		}

		var err error
		resolved, err = geocoder.GeocodeMany(ctx, pending)
		if err != nil {
			return nil, fmt.Errorf("resolve stops: geocode: %w", err)
		}
	}

	stops := make([]domain.Stop, 0, len(inputs))
	for i, in := range inputs {
		addr := strings.TrimSpace(in.Address)

		var loc domain.Coordinates
		if in.Location != nil {
			loc = *in.Location
		} else {
			c, ok := resolved[addr]
			if !ok {
				return nil, fmt.Errorf("resolve stops: no coordinates for %q", addr)
			}
			if !c.Valid() {
				return nil, fmt.Errorf("resolve stops: geocoded %q to %v: %w", addr, c, ErrInvalidCoordinates)
			}
			loc = c
		}

		s := domain.NewStop(addr, loc, in.Notes, now)
		if in.ID != nil {
			s.ID = *in.ID
		}

		for _, prev := range stops {
			if prev.ID == s.ID {
				return nil, fmt.Errorf("resolve stops: stop #%d (%s): %w", i+1, s.ID, ErrDuplicateStop)
			}
		}

		stops = append(stops, s)
	}

	return stops, nil
}
