package optimizer

import (
	"routeflow/internal/domain"
	"routeflow/internal/geo"
)

// NearestNeighbor builds an initial tour greedily from start and returns it
// as indexes into coords.
//
// Unvisited points are scanned in input order and compared with a strict
// less-than, so among equidistant candidates the earliest one wins. Cost is
// O(n²) distance evaluations.
func NearestNeighbor(start domain.Coordinates, coords []domain.Coordinates) []int {
	n := len(coords)
	tour := make([]int, 0, n)
	visited := make([]bool, n)
	current := start

	for len(tour) < n {
		best := -1
		bestDist := 0.0
		for i, c := range coords {
			if visited[i] {
				continue
			}
			d := geo.Distance(current, c)
			if best < 0 || d < bestDist {
				best = i
				bestDist = d
			}
		}

		visited[best] = true
		tour = append(tour, best)
		current = coords[best]
	}

	return tour
}
