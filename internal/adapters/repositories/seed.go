package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"routeflow/internal/domain"
	"strings"
	"time"
)

type StopSeed struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Notes   string  `json:"notes"`
}

type RouteSeed struct {
	Name  string              `json:"name"`
	Start *domain.Coordinates `json:"start"`
	Stops []StopSeed          `json:"stops"`
}

// Populate the database with routes from a JSON file. Seeds carry
// coordinates directly so no geocoder is needed. Returns the number of
// routes written.
func SeedFromJSON(ctx context.Context, repo *SQLRouteRepository, jsonPath string, now time.Time) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed routes: read %q: %w", jsonPath, err)
	}

	var data []RouteSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed routes: parse json: %w", err)
	}

	routes := make([]*domain.Route, 0, len(data))
	for i, item := range data {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return 0, fmt.Errorf("seed routes: route at index %d: name cannot be empty", i+1)
		}

		r := domain.NewRoute(name, now)
		if item.Start != nil {
			if !item.Start.Valid() {
				return 0, fmt.Errorf("seed routes: route %q: start out of range: %+v", name, *item.Start)
			}
			r.SetStart(*item.Start, now)
		}

		for j, s := range item.Stops {
			loc := domain.Coordinates{Lat: s.Lat, Lon: s.Lon}
			if !loc.Valid() {
				return 0, fmt.Errorf("seed routes: route %q stop at index %d: coordinates out of range", name, j+1)
			}
			st := domain.NewStop(strings.TrimSpace(s.Address), loc, s.Notes, now)
			st.SequenceNumber = j + 1
			r.AddStop(st, now)
		}
		routes = append(routes, r)
	}

	for _, r := range routes {
		if err := repo.Save(ctx, r); err != nil {
			return 0, fmt.Errorf("seed routes: %w", err)
		}
	}

	return len(routes), nil
}
