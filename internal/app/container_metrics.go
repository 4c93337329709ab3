package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"courier-dispatch/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter `name:"rate_limit_exceeded_total"`
	AssignConflictsTotal   prometheus.Counter `name:"assign_conflicts_total"`
	BroadcastDroppedTotal  prometheus.Counter `name:"broadcast_dropped_total"`
	EventSinkErrorsTotal   prometheus.Counter `name:"event_sink_errors_total"`
	CatalogRetriesTotal    prometheus.Counter `name:"catalog_retries_total"`
}

// provideMetrics registers service counters on the default registerer. A
// counter that is already registered resolves to the existing collector, so
// rebuilding the container in one process stays safe.
func provideMetrics() (metricsOut, error) {
	var out metricsOut
	var err error

	if out.RateLimitExceededTotal, err = registerCounter("rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.AssignConflictsTotal, err = registerCounter("assign_conflicts_total", metrics.NewAssignConflictsTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.BroadcastDroppedTotal, err = registerCounter("broadcast_dropped_total", metrics.NewBroadcastDroppedTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.EventSinkErrorsTotal, err = registerCounter("event_sink_errors_total", metrics.NewEventSinkErrorsTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.CatalogRetriesTotal, err = registerCounter("catalog_retries_total", metrics.NewCatalogRetriesTotal()); err != nil {
		return metricsOut{}, err
	}
	return out, nil
}

func registerCounter(name string, c prometheus.Counter) (prometheus.Counter, error) {
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}
