package optimizer

import (
	"time"

	"routeflow/internal/domain"
	"routeflow/internal/geo"
)

// PropagateETAs walks stops in order and stamps each with an estimated
// arrival time. It returns the elapsed time from startTime to the last ETA.
//
// Each stop's ETA is the previous ETA (startTime for the first stop) plus the
// travel time at the configured average speed plus the dwell time:
//
//	ETA[k] = ETA[k-1] + distance(prev, stop[k]) / speed + dwell
//
// With a positive dwell the ETAs are strictly increasing even across
// zero-length legs.
func PropagateETAs(stops []domain.Stop, start domain.Coordinates, startTime time.Time, opts Options) time.Duration {
	current := startTime
	location := start
	dwell := opts.dwell()

	for i := range stops {
		travel := geo.Distance(location, stops[i].Location) / opts.AverageSpeedMetersPerSecond
		arrival := current.Add(seconds(travel) + dwell)
		stops[i].EstimatedArrival = &arrival

		current = arrival
		location = stops[i].Location
	}

	return current.Sub(startTime)
}
