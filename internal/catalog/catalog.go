// Package catalog derives picker views from the predefined route set.
package catalog

import "github.com/ukydev/triptap-rides/internal/models"

// Active keeps only routes that can be offered to riders.
func Active(routes []models.Route) []models.Route {
	out := make([]models.Route, 0, len(routes))
	for _, r := range routes {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// OriginsOf returns the distinct origins in first-seen order.
func OriginsOf(routes []models.Route) []string {
	seen := make(map[string]bool, len(routes))
	origins := make([]string, 0, len(routes))
	for _, r := range routes {
		if seen[r.Origin] {
			continue
		}
		seen[r.Origin] = true
		origins = append(origins, r.Origin)
	}
	return origins
}

// DestinationsFor returns the destination names under origin. An unknown origin yields
// an empty slice.
func DestinationsFor(routes []models.Route, origin string) []string {
	names := []string{}
	for _, r := range routes {
		if r.Origin != origin {
			continue
		}
		for _, d := range r.Destinations {
			names = append(names, d.Name)
		}
	}
	return names
}

// Destination looks up the destination entry for (origin, name).
func Destination(routes []models.Route, origin, name string) (models.Destination, bool) {
	for _, r := range routes {
		if r.Origin != origin {
			continue
		}
		for _, d := range r.Destinations {
			if d.Name == name {
				return d, true
			}
		}
	}
	return models.Destination{}, false
}

// PriceFor returns the route-table price for the full triple.
func PriceFor(routes []models.Route, origin, destination string, v models.VehicleType) (models.VehiclePrice, bool) {
	d, ok := Destination(routes, origin, destination)
	if !ok {
		return models.VehiclePrice{}, false
	}
	return d.PriceFor(v)
}
