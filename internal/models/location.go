package models

// Coordinates represents a geographical location with latitude and longitude coordinates.
type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Unresolved is sent for pickup/dropoff while origins and destinations are catalog names
// without geocoding.
var Unresolved = Coordinates{}

// IsResolved reports whether the coordinates carry a real position.
func (c Coordinates) IsResolved() bool {
	return c != Unresolved
}
