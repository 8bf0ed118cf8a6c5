package geo

import (
	"math"

	"routeflow/internal/domain"
)

// Mean Earth radius (IUGG) in meters.
const EarthRadiusMeters = 6371008.8

// Distance returns the great-circle distance in meters between a and b using
// the haversine formula. Out-of-range coordinates are not rejected.
func Distance(a, b domain.Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*sinLon*sinLon

	// Rounding can push h slightly outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// PathDistance sums the leg from start to the first point and every
// consecutive leg after it. It returns 0 for an empty path.
func PathDistance(start domain.Coordinates, path []domain.Coordinates) float64 {
	total := 0.0
	prev := start
	for _, c := range path {
		total += Distance(prev, c)
		prev = c
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
