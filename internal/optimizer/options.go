package optimizer

import (
	"errors"
	"fmt"
	"time"
)

const (
	// Roughly 30 mph of urban driving.
	DefaultAverageSpeedMetersPerSecond = 13.4
	DefaultDwellSeconds                = 180
)

// Options tunes ETA propagation and bounds the local search.
type Options struct {
	AverageSpeedMetersPerSecond float64
	DwellSeconds                float64
	// MaxPasses caps the number of full 2-opt sweeps. Zero runs until no
	// improving reversal remains.
	MaxPasses int
}

func DefaultOptions() Options {
	return Options{
		AverageSpeedMetersPerSecond: DefaultAverageSpeedMetersPerSecond,
		DwellSeconds:                DefaultDwellSeconds,
	}
}

// Validate rejects options the ETA arithmetic cannot use.
func (o Options) Validate() error {
	var errs []error
	if o.AverageSpeedMetersPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("averageSpeedMetersPerSecond must be positive, got %v", o.AverageSpeedMetersPerSecond))
	}
	// A zero dwell lets coincident stops share an ETA.
	if o.DwellSeconds <= 0 {
		errs = append(errs, fmt.Errorf("dwellSeconds must be positive, got %v", o.DwellSeconds))
	}
	if o.MaxPasses < 0 {
		errs = append(errs, fmt.Errorf("maxPasses must not be negative, got %d", o.MaxPasses))
	}
	if len(errs) > 0 {
		return fmt.Errorf("optimizer options: %w", errors.Join(errs...))
	}
	return nil
}

func (o Options) dwell() time.Duration {
	return seconds(o.DwellSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
