package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewAssignConflictsTotal returns a Prometheus counter for delivery claims lost to another courier
func NewAssignConflictsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "delivery_assign_conflicts_total",
		Help: "Total number of delivery claim attempts rejected because another courier won the race",
	})
}

// NewBroadcastDroppedTotal returns a Prometheus counter for realtime events dropped on slow or full client queues
func NewBroadcastDroppedTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_dropped_total",
		Help: "Total number of realtime events dropped because a client send queue was full",
	})
}

// NewEventSinkErrorsTotal returns a Prometheus counter for failed publishes to the Kafka event sink
func NewEventSinkErrorsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "event_sink_errors_total",
		Help: "Total number of failed publishes to the delivery-events sink",
	})
}

// NewCatalogRetriesTotal returns a Prometheus counter for retry attempts performed by the vehicle catalog gateway
func NewCatalogRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vehicle_catalog_retries_total",
		Help: "Total number of retry attempts performed by the vehicle catalog gateway",
	})
}
