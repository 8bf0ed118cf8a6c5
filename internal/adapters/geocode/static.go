package geocode

import (
	"context"
	"fmt"
	"routeflow/internal/domain"
)

// StaticGeocoder resolves addresses from a fixed table. It backs tests and
// offline runs where no ORS key is configured.
type StaticGeocoder struct {
	m map[string]domain.Coordinates
}

func NewStaticGeocoder(table map[string]domain.Coordinates) *StaticGeocoder {
	m := make(map[string]domain.Coordinates, len(table))
	for k, v := range table {
		m[normalize(k)] = v
	}
	return &StaticGeocoder{m: m}
}

func (s *StaticGeocoder) GeocodeMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, len(addresses))
	for _, a := range addresses {
		c, ok := s.m[normalize(a)]
		if !ok {
			return nil, fmt.Errorf("geocode %q: %w", a, ErrNoResults)
		}
		out[a] = c
	}
	return out, nil
}
