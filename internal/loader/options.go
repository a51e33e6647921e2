package loader

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	DefaultPointThreshold      = 1_000_000
	DefaultMinProjSizeModifier = 0.1
	DefaultWorkers             = 2
)

// Contains the tunables of the out of core loader
type Options struct {
	// Maximum number of points resident at once
	PointThreshold int
	// Octants whose projected size, in pixels, is below this fraction of the
	// viewport height are not rendered
	MinProjSizeModifier float64
	// Number of goroutines reading payloads
	Workers int
	// Maximum number of requests waiting for a worker, 0 means 4 per worker
	MaxPendingRequests int
	// How long an octant that left the visible set keeps its buffer
	GracePeriod time.Duration
	Clock       clock.Clock
}

func DefaultOptions() Options {
	return Options{
		PointThreshold:      DefaultPointThreshold,
		MinProjSizeModifier: DefaultMinProjSizeModifier,
		Workers:             DefaultWorkers,
	}
}

func (o Options) withDefaults() (Options, error) {
	if o.PointThreshold <= 0 {
		return o, errors.Errorf("point threshold must be positive, got %d", o.PointThreshold)
	}
	if o.MinProjSizeModifier < 0 {
		return o, errors.Errorf("min projected size modifier cannot be negative, got %f", o.MinProjSizeModifier)
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.MaxPendingRequests <= 0 {
		o.MaxPendingRequests = 4 * o.Workers
	}
	if o.GracePeriod < 0 {
		o.GracePeriod = 0
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o, nil
}
