// Package cost turns trip distance and vehicle fuel consumption into a
// rounded monetary amount.
package cost

import (
	"math"

	"courier-dispatch/internal/config"
)

// Estimator computes delivery costs from pricing parameters.
type Estimator struct {
	fuelPricePerLiter float64
	baseFee           float64
}

// NewEstimator creates an Estimator, falling back to package defaults for
// non-positive pricing parameters.
func NewEstimator(p config.Pricing) *Estimator {
	def := config.DefaultPricing()
	if p.FuelPricePerLiter <= 0 {
		p.FuelPricePerLiter = def.FuelPricePerLiter
	}
	if p.BaseDeliveryFee <= 0 {
		p.BaseDeliveryFee = def.BaseDeliveryFee
	}
	return &Estimator{
		fuelPricePerLiter: p.FuelPricePerLiter,
		baseFee:           p.BaseDeliveryFee,
	}
}

// DeliveryCost returns the total delivery cost: base fee plus fuel cost,
// rounded to 2 decimal places. distanceKm is in kilometers,
// fuelConsumption in liters per 100 km.
func (e *Estimator) DeliveryCost(distanceKm, fuelConsumption float64) float64 {
	total := e.baseFee + e.rawFuelCost(distanceKm, fuelConsumption)
	return round2(total)
}

// FuelCost returns the fuel cost alone, rounded to 2 decimal places.
func (e *Estimator) FuelCost(distanceKm, fuelConsumption float64) float64 {
	return round2(e.rawFuelCost(distanceKm, fuelConsumption))
}

func (e *Estimator) rawFuelCost(distanceKm, fuelConsumption float64) float64 {
	return (distanceKm / 100) * fuelConsumption * e.fuelPricePerLiter
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
