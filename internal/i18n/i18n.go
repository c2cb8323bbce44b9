// Package i18n holds the rider-facing messages in Spanish and English.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Message keys.
const (
	ErrLoadRoutes       = "error.load_routes"
	ErrContactRequired  = "error.contact_required"
	ErrScheduleRequired = "error.schedule_required"
	ErrNameRequired     = "error.name_required"
	ErrSelection        = "error.selection_required"
	ErrBags             = "error.bags_invalid"
	ErrNoFare           = "error.no_fare"
	ErrRequestFailed    = "error.request_failed"
	ErrTripIDMissing    = "error.trip_id_missing"
	ErrLoadStatus       = "error.load_status"
	ErrConnection       = "error.connection"
	RideRequested       = "ride.requested"
	RideRequestedDetail = "ride.requested_detail"
)

// Supported languages; the first is the default.
var Supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(Supported)

var catalog = map[string]map[string]string{
	"es": {
		ErrLoadRoutes:       "Error al cargar rutas disponibles",
		ErrContactRequired:  "Por favor ingresa al menos un email o número de teléfono",
		ErrScheduleRequired: "Por favor ingresa la fecha y hora para el viaje programado",
		ErrNameRequired:     "Por favor ingresa tu nombre completo",
		ErrSelection:        "Selecciona origen, destino y tipo de vehículo",
		ErrBags:             "Número de maletas inválido",
		ErrNoFare:           "La tarifa aún no está disponible para esta selección",
		ErrRequestFailed:    "Error al solicitar el viaje. Por favor intenta de nuevo.",
		ErrTripIDMissing:    "No se encontró el ID del viaje",
		ErrLoadStatus:       "Error al cargar el estado del viaje",
		ErrConnection:       "Error de conexión",
		RideRequested:       "¡Viaje solicitado exitosamente!",
		RideRequestedDetail: "Código: %s. %d conductores notificados.",

		"status.REQUESTED":              "Buscando conductor",
		"status.REQUESTED.desc":         "Estamos buscando el conductor perfecto para tu viaje",
		"status.ACCEPTED":               "Conductor asignado",
		"status.ACCEPTED.desc":          "Un conductor ha aceptado tu viaje",
		"status.IN_ROUTE":               "Conductor en camino",
		"status.IN_ROUTE.desc":          "El conductor se dirige a tu ubicación",
		"status.ARRIVED_AT_PICKUP":      "Conductor ha llegado",
		"status.ARRIVED_AT_PICKUP.desc": "El conductor está esperando en el punto de recogida",
		"status.IN_PROGRESS":            "Viaje en progreso",
		"status.IN_PROGRESS.desc":       "Estás en camino a tu destino",
		"status.COMPLETED":              "Viaje completado",
		"status.COMPLETED.desc":         "¡Has llegado a tu destino!",
		"status.CANCELLED":              "Viaje cancelado",
		"status.CANCELLED.desc":         "El viaje ha sido cancelado",
	},
	"en": {
		ErrLoadRoutes:       "Error loading available routes",
		ErrContactRequired:  "Please enter at least an email or phone number",
		ErrScheduleRequired: "Please enter date and time for the scheduled trip",
		ErrNameRequired:     "Please enter your full name",
		ErrSelection:        "Select origin, destination and vehicle type",
		ErrBags:             "Invalid number of bags",
		ErrNoFare:           "No fare is available for this selection yet",
		ErrRequestFailed:    "Error requesting ride. Please try again.",
		ErrTripIDMissing:    "Trip ID not found",
		ErrLoadStatus:       "Error loading trip status",
		ErrConnection:       "Connection error",
		RideRequested:       "Ride requested successfully!",
		RideRequestedDetail: "Code: %s. %d drivers notified.",

		"status.REQUESTED":              "Looking for driver",
		"status.REQUESTED.desc":         "We are finding the perfect driver for your ride",
		"status.ACCEPTED":               "Driver assigned",
		"status.ACCEPTED.desc":          "A driver has accepted your ride",
		"status.IN_ROUTE":               "Driver on the way",
		"status.IN_ROUTE.desc":          "The driver is heading to your location",
		"status.ARRIVED_AT_PICKUP":      "Driver has arrived",
		"status.ARRIVED_AT_PICKUP.desc": "The driver is waiting at the pickup point",
		"status.IN_PROGRESS":            "Trip in progress",
		"status.IN_PROGRESS.desc":       "You are on the way to your destination",
		"status.COMPLETED":              "Trip completed",
		"status.COMPLETED.desc":         "You have arrived at your destination!",
		"status.CANCELLED":              "Trip cancelled",
		"status.CANCELLED.desc":         "The trip has been cancelled",
	},
}

// Translator looks up rider-facing messages.
type Translator interface {
	T(key string, args ...interface{}) string
	Lang() string
}

// Catalog is the built-in Translator for one language.
type Catalog struct {
	lang string
}

// New returns the catalog best matching the given language preferences
// (e.g. "en-US", "es-DO,es;q=0.9"). Unmatched input falls back to Spanish.
func New(prefs ...string) *Catalog {
	return &Catalog{lang: Match(prefs...)}
}

// Match negotiates prefs against Supported and returns "es" or "en".
func Match(prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	_, idx, _ := matcher.Match(tags...)
	base, _ := Supported[idx].Base()
	return base.String()
}

func (c *Catalog) Lang() string { return c.lang }

// T returns the message for key, formatted with args when given.
// Missing keys fall back to English, then to the key itself.
func (c *Catalog) T(key string, args ...interface{}) string {
	msg, ok := catalog[c.lang][key]
	if !ok {
		msg, ok = catalog["en"][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// StatusKey is the headline key for a trip status; append ".desc" for its description.
func StatusKey(status string) string {
	return "status." + status
}
