package handlers

import "github.com/ukydev/triptap-rides/internal/models"

// DemoRoutes is the catalog the simulator serves when no other is given.
func DemoRoutes() []models.Route {
	prices := func(normal, luxury, minivan, minutes float64) []models.VehiclePrice {
		return []models.VehiclePrice{
			{VehicleType: models.VehicleNormal, Price: normal, EstimatedTime: minutes},
			{VehicleType: models.VehicleLuxury, Price: luxury, EstimatedTime: minutes},
			{VehicleType: models.VehicleMinivan, Price: minivan, EstimatedTime: minutes + 5},
		}
	}
	return []models.Route{
		{
			ID:       "r-airport",
			Origin:   "Airport",
			IsActive: true,
			Destinations: []models.Destination{
				{Name: "Downtown", Prices: prices(20, 45, 35, 25)},
				{Name: "Zona Colonial", Prices: prices(30, 60, 48, 40)},
			},
		},
		{
			ID:       "r-puntacana",
			Origin:   "Punta Cana",
			IsActive: true,
			Destinations: []models.Destination{
				{Name: "Bavaro", Prices: prices(15, 35, 28, 20)},
				{Name: "Cap Cana", Prices: []models.VehiclePrice{
					{VehicleType: models.VehicleNormal, Price: 25, EstimatedTime: 30},
				}},
			},
		},
		{
			ID:       "r-samana",
			Origin:   "Samana",
			IsActive: false,
			Destinations: []models.Destination{
				{Name: "Las Terrenas", Prices: prices(40, 80, 65, 50)},
			},
		},
	}
}
