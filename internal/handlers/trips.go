package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/triptap-rides/internal/catalog"
	"github.com/ukydev/triptap-rides/internal/models"
)

// TripAPI simulates the TripTap endpoints the rider client consumes.
// Each status poll counts as one tick; every ticksPerStage ticks the trip advances one stage.
type TripAPI struct {
	mu            sync.Mutex
	routes        []models.Route
	trips         map[string]*simTrip
	ticksPerStage int
	now           func() time.Time
	log           logrus.FieldLogger
}

type simTrip struct {
	result  models.TripSubmissionResult
	request models.TripRequest
	status  models.TripStatus
	polls   int
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// NewTripAPI creates a simulator serving routes.
func NewTripAPI(routes []models.Route, ticksPerStage int, log logrus.FieldLogger) *TripAPI {
	if ticksPerStage < 1 {
		ticksPerStage = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TripAPI{
		routes:        routes,
		trips:         make(map[string]*simTrip),
		ticksPerStage: ticksPerStage,
		now:           time.Now,
		log:           log,
	}
}

// Routes registers the simulator endpoints under /api.
func (h *TripAPI) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/predefined-routes/all", h.ListRoutes)
	mux.HandleFunc("GET /api/predefined-routes/origin/{origin}", h.RouteByOrigin)
	mux.HandleFunc("GET /api/predefined-routes/fare", h.Fare)
	mux.HandleFunc("POST /api/trips/request", h.RequestTrip)
	mux.HandleFunc("GET /api/trips/status/{requestId}", h.Status)
	mux.HandleFunc("POST /api/trips/{requestId}/cancel", h.Cancel)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// ListRoutes handles GET /predefined-routes/all
func (h *TripAPI) ListRoutes(w http.ResponseWriter, r *http.Request) {
	routes := h.routes
	if routes == nil {
		routes = []models.Route{}
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: routes})
}

// RouteByOrigin handles GET /predefined-routes/origin/{origin}
func (h *TripAPI) RouteByOrigin(w http.ResponseWriter, r *http.Request) {
	origin := r.PathValue("origin")
	for _, route := range h.routes {
		if strings.EqualFold(route.Origin, origin) {
			writeJSON(w, http.StatusOK, response{Success: true, Data: route})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, response{Message: "Route not found"})
}

// Fare handles GET /predefined-routes/fare
func (h *TripAPI) Fare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	origin, destination := q.Get("origin"), q.Get("destination")
	vehicle := models.VehicleType(q.Get("vehicleType"))
	if origin == "" || destination == "" || vehicle == "" {
		writeJSON(w, http.StatusBadRequest, response{Message: "origin, destination and vehicleType are required"})
		return
	}
	price, ok := catalog.PriceFor(h.routes, origin, destination, vehicle)
	if !ok {
		writeJSON(w, http.StatusNotFound, response{Message: "No fare for this route"})
		return
	}
	writeJSON(w, http.StatusOK, models.FareQuote{Fare: price.Price, EstimatedTime: price.EstimatedTime})
}

// RequestTrip handles POST /trips/request
func (h *TripAPI) RequestTrip(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Failed to read request body"})
		return
	}
	var req models.TripRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid JSON"})
		return
	}

	if _, ok := catalog.Destination(h.routes, req.Origin, req.Destination); !ok {
		writeJSON(w, http.StatusUnprocessableEntity, response{Message: "Route is not available"})
		return
	}
	info := req.CustomerTripInfo
	if info.Name == "" || (info.Email == "" && info.Phone == "") {
		writeJSON(w, http.StatusBadRequest, response{Message: "Customer name and a contact are required"})
		return
	}
	if !info.IsNowTrip && (info.DateTrip == "" || info.HourTrip == "") {
		writeJSON(w, http.StatusBadRequest, response{Message: "Scheduled trips need dateTrip and hourTrip"})
		return
	}
	if req.Fare <= 0 {
		writeJSON(w, http.StatusBadRequest, response{Message: "Fare must be positive"})
		return
	}

	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	result := models.TripSubmissionResult{
		TripID:          uuid.NewString(),
		RequestID:       "REQ" + id[:10],
		TripCode:        "TT-" + id[10:16],
		Fare:            req.Fare,
		DriversNotified: 3,
	}
	if price, ok := findPriceByTripType(h.routes, req); ok {
		result.EstimatedTime = price.EstimatedTime
	}

	h.mu.Lock()
	h.trips[result.RequestID] = &simTrip{
		result:  result,
		request: req,
		status: models.TripStatus{
			TripID:          result.TripID,
			RequestID:       result.RequestID,
			Status:          models.StatusRequested,
			InitiatedAt:     h.now().UTC(),
			PickupLocation:  req.PickupLocation,
			DropoffLocation: req.DropoffLocation,
		},
	}
	h.mu.Unlock()

	h.log.WithFields(logrus.Fields{
		"request_id":  result.RequestID,
		"origin":      req.Origin,
		"destination": req.Destination,
		"type_trip":   req.TypeTrip,
	}).Info("Trip requested")

	writeJSON(w, http.StatusCreated, response{Success: true, Message: "Trip requested", Data: result})
}

// Status handles GET /trips/status/{requestId}
func (h *TripAPI) Status(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestId")

	h.mu.Lock()
	trip, ok := h.trips[requestID]
	if !ok {
		h.mu.Unlock()
		writeJSON(w, http.StatusNotFound, response{Message: "Trip not found"})
		return
	}
	h.advance(trip)
	status := trip.status
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, response{Success: true, Data: status})
}

// Cancel handles POST /trips/{requestId}/cancel
func (h *TripAPI) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("requestId")

	h.mu.Lock()
	defer h.mu.Unlock()
	trip, ok := h.trips[requestID]
	if !ok {
		writeJSON(w, http.StatusNotFound, response{Message: "Trip not found"})
		return
	}
	if trip.status.Status.IsTerminal() {
		writeJSON(w, http.StatusConflict, response{Message: "Trip already finished"})
		return
	}
	trip.status.Status = models.StatusCancelled
	writeJSON(w, http.StatusOK, response{Success: true, Data: trip.status})
}

// advance moves the trip one stage forward every ticksPerStage polls. Caller holds h.mu.
func (h *TripAPI) advance(trip *simTrip) {
	if trip.status.Status.IsTerminal() {
		return
	}
	trip.polls++
	if trip.polls%h.ticksPerStage != 0 {
		return
	}
	next := models.StageIndex(trip.status.Status) + 1
	if next >= len(models.StageList) {
		return
	}
	trip.status.Status = models.StageList[next]
	if trip.status.Driver == nil && trip.status.Status == models.StatusAccepted {
		trip.status.Driver = &models.Driver{
			ID:   "drv-001",
			Name: "Carlos Martinez",
			Vehicle: models.DriverVehicle{
				Brand:       "Toyota",
				Model:       "Corolla",
				Color:       "White",
				PlateNumber: "A123456",
			},
			Rating: 4.8,
		}
		trip.status.EstimatedArrival = "8 min"
	}
}

func findPriceByTripType(routes []models.Route, req models.TripRequest) (models.VehiclePrice, bool) {
	for _, v := range models.Vehicles {
		if v.TripType != req.TypeTrip {
			continue
		}
		return catalog.PriceFor(routes, req.Origin, req.Destination, v.Type)
	}
	return models.VehiclePrice{}, false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
