package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "dispatch",
	Pass: "dispatch",
	Name: "dispatch_db",
}

var defaultPricing = Pricing{
	FuelPricePerLiter: 2.5,
	BaseDeliveryFee:   5.0,
}

const defaultKafkaTopic = "delivery-events"

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       50,
	Burst:      100,
	TTL:        5 * time.Minute,
	MaxBuckets: 10000,
}

var defaultDispatch = Dispatch{
	OperationTimeout: 3 * time.Second,
	BroadcastQueue:   256,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// DefaultPricing returns the default cost estimation parameters.
func DefaultPricing() Pricing {
	return defaultPricing
}

// DefaultRateLimit returns the default rate limiting settings.
func DefaultRateLimit() RateLimit {
	return defaultRateLimit
}

// DefaultDispatch returns the default dispatch-core settings.
func DefaultDispatch() Dispatch {
	return defaultDispatch
}
