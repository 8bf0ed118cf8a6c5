package optimizer

import (
	"slices"

	"routeflow/internal/domain"
	"routeflow/internal/geo"
)

// TwoOptStats describes how the local search went.
type TwoOptStats struct {
	Passes         int
	Swaps          int
	DistanceMeters float64
	// Truncated is set when MaxPasses stopped the search while the last pass
	// was still finding improvements.
	Truncated bool
}

// TwoOpt refines an open tour that starts at start by reversing segments.
//
// Every pair 0 <= i < j < n is tried in order; the segment [i..j] is reversed
// in place and kept when the whole path, including the leg from start, gets
// strictly shorter. Accepted reversals become the baseline for the rest of the
// sweep (first improvement). Sweeps repeat until one adopts nothing, or until
// maxPasses sweeps have run when maxPasses > 0.
//
// The input order is not modified.
func TwoOpt(start domain.Coordinates, coords []domain.Coordinates, order []int, maxPasses int) ([]int, TwoOptStats) {
	tour := slices.Clone(order)
	n := len(tour)
	m := newDistanceMatrix(start, coords)

	stats := TwoOptStats{DistanceMeters: m.pathLength(tour)}
	if n < 2 {
		return tour, stats
	}

	best := stats.DistanceMeters
	for {
		if maxPasses > 0 && stats.Passes >= maxPasses {
			stats.Truncated = true
			break
		}
		stats.Passes++

		improved := false
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				slices.Reverse(tour[i : j+1])
				if d := m.pathLength(tour); d < best {
					best = d
					improved = true
					stats.Swaps++
					continue
				}
				slices.Reverse(tour[i : j+1])
			}
		}

		if !improved {
			break
		}
	}

	stats.DistanceMeters = best
	return tour, stats
}

// distanceMatrix caches every leg the search can evaluate.
type distanceMatrix struct {
	n         int
	fromStart []float64
	between   []float64
}

func newDistanceMatrix(start domain.Coordinates, coords []domain.Coordinates) *distanceMatrix {
	n := len(coords)
	m := &distanceMatrix{
		n:         n,
		fromStart: make([]float64, n),
		between:   make([]float64, n*n),
	}

	for i, c := range coords {
		m.fromStart[i] = geo.Distance(start, c)
		for j := i + 1; j < n; j++ {
			d := geo.Distance(c, coords[j])
			m.between[i*n+j] = d
			m.between[j*n+i] = d
		}
	}

	return m
}

// pathLength sums the start leg and the consecutive legs of tour, in the same
// order geo.PathDistance does.
func (m *distanceMatrix) pathLength(tour []int) float64 {
	if len(tour) == 0 {
		return 0
	}

	total := m.fromStart[tour[0]]
	for k := 1; k < len(tour); k++ {
		total += m.between[tour[k-1]*m.n+tour[k]]
	}
	return total
}
