package ports

import (
	"context"
	"routeflow/internal/optimizer"
)

// Optimization results are a pure function of their inputs, so they can be
// reused for identical requests.
type OptimizationCache interface {
	Get(ctx context.Context, key string) (optimizer.Result, bool, error)
	Set(ctx context.Context, key string, res optimizer.Result) error
}
