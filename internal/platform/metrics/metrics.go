package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeflow",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routeflow",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
	}, []string{"method", "path"})

	OptimizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routeflow",
		Subsystem: "optimizer",
		Name:      "duration_seconds",
		Help:      "Wall time of a full optimization run",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	OptimizeStops = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routeflow",
		Subsystem: "optimizer",
		Name:      "stops",
		Help:      "Number of stops per optimization run",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 200, 500},
	})

	OptimizePasses = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routeflow",
		Subsystem: "optimizer",
		Name:      "two_opt_passes",
		Help:      "Number of 2-opt sweeps until convergence or budget",
		Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 50},
	})

	OptimizeTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routeflow",
		Subsystem: "optimizer",
		Name:      "truncated_total",
		Help:      "Runs stopped by the 2-opt pass budget",
	})

	OptimizeAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routeflow",
		Subsystem: "optimizer",
		Name:      "abandoned_total",
		Help:      "Runs whose caller went away before the result was ready",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeflow",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeflow",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"cache"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
