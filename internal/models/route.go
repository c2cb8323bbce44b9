package models

import (
	"errors"
	"fmt"
)

// Route groups every destination reachable from one origin.
type Route struct {
	ID           string        `json:"_id,omitempty" bson:"_id,omitempty"`
	Origin       string        `json:"origin" bson:"origin"`
	Destinations []Destination `json:"destinations" bson:"destinations"`
	IsActive     bool          `json:"isActive" bson:"is_active"`
}

// Destination is one endpoint reachable from a route's origin, priced per vehicle type.
type Destination struct {
	Name   string         `json:"name" bson:"name"`
	Prices []VehiclePrice `json:"prices" bson:"prices"`
}

// VehiclePrice is the static route-table price for one vehicle type.
type VehiclePrice struct {
	VehicleType   VehicleType `json:"vehicleType" bson:"vehicle_type"`
	Price         float64     `json:"price" bson:"price"`                   // in USD
	EstimatedTime float64     `json:"estimatedTime" bson:"estimated_time"` // in minutes
}

// FareQuote is the server-computed estimate for a single (origin, destination, vehicle) triple.
type FareQuote struct {
	Fare          float64 `json:"fare"`
	EstimatedTime float64 `json:"estimatedTime"`
}

var ErrInvalidRoute = errors.New("invalid route")

// Validate checks the shape guarantees the rest of the client relies on.
func (r Route) Validate() error {
	if r.Origin == "" {
		return fmt.Errorf("%w: empty origin", ErrInvalidRoute)
	}
	seen := make(map[string]bool, len(r.Destinations))
	for _, d := range r.Destinations {
		if d.Name == "" {
			return fmt.Errorf("%w: %s has a destination without name", ErrInvalidRoute, r.Origin)
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: %s lists destination %q twice", ErrInvalidRoute, r.Origin, d.Name)
		}
		seen[d.Name] = true
		if err := d.validate(); err != nil {
			return fmt.Errorf("%w: %s -> %s: %v", ErrInvalidRoute, r.Origin, d.Name, err)
		}
	}
	return nil
}

func (d Destination) validate() error {
	types := make(map[VehicleType]bool, len(d.Prices))
	for _, p := range d.Prices {
		if !IsValidVehicleType(p.VehicleType) {
			return fmt.Errorf("unknown vehicle type %q", p.VehicleType)
		}
		if types[p.VehicleType] {
			return fmt.Errorf("duplicate price for %s", p.VehicleType)
		}
		types[p.VehicleType] = true
		if p.Price < 0 || p.EstimatedTime < 0 {
			return fmt.Errorf("negative price or time for %s", p.VehicleType)
		}
	}
	return nil
}

// PriceFor returns the price entry for the vehicle type, if the destination offers it.
func (d Destination) PriceFor(v VehicleType) (VehiclePrice, bool) {
	for _, p := range d.Prices {
		if p.VehicleType == v {
			return p, true
		}
	}
	return VehiclePrice{}, false
}

// Validate rejects quotes that cannot be shown to a rider.
func (q FareQuote) Validate() error {
	if q.Fare < 0 || q.EstimatedTime < 0 {
		return fmt.Errorf("invalid fare quote: fare=%v estimatedTime=%v", q.Fare, q.EstimatedTime)
	}
	return nil
}
