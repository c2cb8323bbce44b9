// Package ride drives a rider from route selection to a submitted trip request.
package ride

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/triptap-rides/internal/api"
	"github.com/ukydev/triptap-rides/internal/catalog"
	"github.com/ukydev/triptap-rides/internal/handoff"
	"github.com/ukydev/triptap-rides/internal/i18n"
	"github.com/ukydev/triptap-rides/internal/models"
)

// AcknowledgementTTL is how long a success acknowledgement stays visible.
const AcknowledgementTTL = 5 * time.Second

// State is the position of the flow.
type State int

const (
	Empty State = iota
	OriginSelected
	DestinationSelected
	VehicleSelected
	DetailsCollecting
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case OriginSelected:
		return "OriginSelected"
	case DestinationSelected:
		return "DestinationSelected"
	case VehicleSelected:
		return "VehicleSelected"
	case DetailsCollecting:
		return "DetailsCollecting"
	case Submitting:
		return "Submitting"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrUnknownOrigin       = errors.New("origin is not offered")
	ErrUnknownDestination  = errors.New("destination is not offered from this origin")
	ErrNoOrigin            = errors.New("select an origin first")
	ErrNoDestination       = errors.New("select a destination first")
	ErrVehicleUnavailable  = errors.New("vehicle type has no price for this route")
	ErrIncompleteSelection = errors.New("origin, destination and vehicle type are required")
	ErrNoFare              = errors.New("no fare known for the selection")
	ErrBusy                = errors.New("a submission is in progress")
	ErrNotCollecting       = errors.New("details step is not open")
	ErrDetailsOpen         = errors.New("close the details step before changing the selection")
)

// API is the part of the TripTap API the flow calls.
type API interface {
	FetchAllRoutes(ctx context.Context) ([]models.Route, error)
	FetchFare(ctx context.Context, origin, destination string, vehicle models.VehicleType) (models.FareQuote, error)
	RequestTrip(ctx context.Context, req models.TripRequest) (models.TripSubmissionResult, error)
}

// Acknowledgement is the transient notice shown after a successful submission.
type Acknowledgement struct {
	Title           string
	Detail          string
	TripID          string
	RequestID       string
	DriversNotified int
	Until           time.Time
}

// View is a consistent copy of the flow state for rendering.
type View struct {
	State       State
	Selection   Selection
	Fare        *models.FareQuote
	FareLoading bool
	Details     CustomerDetails
	Error       string
	RoutesReady bool
}

// Flow is the ride-request state machine. It is safe for concurrent use; network
// calls run outside its lock.
type Flow struct {
	api   API
	store handoff.Store
	nav   Navigator
	tr    i18n.Translator
	log   logrus.FieldLogger
	now   func() time.Time

	// OnTransition, when set, is called with every state change. It runs under the
	// flow lock and must not call back into the Flow.
	OnTransition func(from, to State)

	mu          sync.Mutex
	state       State
	routes      []models.Route
	routesReady bool
	sel         Selection
	fare        *models.FareQuote
	fareFor     Selection
	fareSeq     uint64
	fareCancel  context.CancelFunc
	fareLoading bool
	details     CustomerDetails
	errMsg      string
	ack         *Acknowledgement
}

// NewFlow wires a flow. store and nav may be nil.
func NewFlow(client API, store handoff.Store, nav Navigator, tr i18n.Translator, log logrus.FieldLogger) *Flow {
	if tr == nil {
		tr = i18n.New()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Flow{
		api:     client,
		store:   store,
		nav:     nav,
		tr:      tr,
		log:     log,
		now:     time.Now,
		details: DefaultDetails(),
	}
}

// Load fetches the route catalog. On failure the catalog is empty and the
// error message is set; the flow stays usable and Load may be retried.
func (f *Flow) Load(ctx context.Context) error {
	routes, err := f.api.FetchAllRoutes(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.routes = nil
		f.routesReady = false
		f.errMsg = f.tr.T(i18n.ErrLoadRoutes)
		f.log.WithError(err).Warn("Failed to load routes")
		return err
	}
	f.routes = catalog.Active(routes)
	f.routesReady = true
	f.errMsg = ""
	f.log.WithField("routes", len(f.routes)).Debug("Routes loaded")
	if f.state != Submitting {
		f.reconcileSelectionLocked()
	}
	return nil
}

// reconcileSelectionLocked drops the parts of the selection the current catalog
// no longer offers. An open details step closes when the triple breaks.
func (f *Flow) reconcileSelectionLocked() {
	sel := f.sel
	switch {
	case sel.Origin == "":
	case !contains(catalog.OriginsOf(f.routes), sel.Origin):
		sel = Selection{}
	case sel.Destination != "" && !contains(catalog.DestinationsFor(f.routes, sel.Origin), sel.Destination):
		sel.Destination, sel.Vehicle = "", ""
	case sel.Vehicle != "" && sel.Destination != "":
		if _, ok := catalog.PriceFor(f.routes, sel.Origin, sel.Destination, sel.Vehicle); !ok {
			sel.Vehicle = ""
		}
	}
	if sel == f.sel {
		return
	}
	f.log.WithFields(logrus.Fields{
		"origin":      f.sel.Origin,
		"destination": f.sel.Destination,
		"vehicle":     f.sel.Vehicle,
	}).Info("Selection no longer offered, cleared")
	f.sel = sel
	f.selectionChangedLocked()
}

// Origins lists the selectable origins.
func (f *Flow) Origins() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return catalog.OriginsOf(f.routes)
}

// Destinations lists the destinations of the selected origin.
func (f *Flow) Destinations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sel.Origin == "" {
		return []string{}
	}
	return catalog.DestinationsFor(f.routes, f.sel.Origin)
}

// VehicleAvailable reports whether v has a route-table price for the current
// origin and destination.
func (f *Flow) VehicleAvailable(v models.VehicleType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vehicleAvailableLocked(v)
}

func (f *Flow) vehicleAvailableLocked(v models.VehicleType) bool {
	if f.sel.Origin == "" || f.sel.Destination == "" {
		return false
	}
	_, ok := catalog.PriceFor(f.routes, f.sel.Origin, f.sel.Destination, v)
	return ok
}

// SelectOrigin picks an origin and clears the destination.
func (f *Flow) SelectOrigin(ctx context.Context, origin string) error {
	f.mu.Lock()
	if err := f.selectableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if !contains(catalog.OriginsOf(f.routes), origin) {
		f.mu.Unlock()
		return ErrUnknownOrigin
	}
	f.sel.Origin = origin
	f.sel.Destination = ""
	f.selectionChangedLocked()
	f.mu.Unlock()
	return nil
}

// SelectDestination picks a destination of the selected origin. A previously
// chosen vehicle is kept only when the new destination prices it.
func (f *Flow) SelectDestination(ctx context.Context, name string) error {
	f.mu.Lock()
	if err := f.selectableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.sel.Origin == "" {
		f.mu.Unlock()
		return ErrNoOrigin
	}
	if !contains(catalog.DestinationsFor(f.routes, f.sel.Origin), name) {
		f.mu.Unlock()
		return ErrUnknownDestination
	}
	f.sel.Destination = name
	if f.sel.Vehicle != "" && !f.vehicleAvailableLocked(f.sel.Vehicle) {
		f.sel.Vehicle = ""
	}
	f.selectionChangedLocked()
	f.mu.Unlock()

	f.refreshFare(ctx)
	return nil
}

// SelectVehicle picks a vehicle type; types without a price for the route are rejected.
func (f *Flow) SelectVehicle(ctx context.Context, v models.VehicleType) error {
	f.mu.Lock()
	if err := f.selectableLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.sel.Destination == "" {
		f.mu.Unlock()
		return ErrNoDestination
	}
	if !f.vehicleAvailableLocked(v) {
		f.mu.Unlock()
		return ErrVehicleUnavailable
	}
	f.sel.Vehicle = v
	f.selectionChangedLocked()
	f.mu.Unlock()

	f.refreshFare(ctx)
	return nil
}

func (f *Flow) selectableLocked() error {
	switch f.state {
	case Submitting:
		return ErrBusy
	case DetailsCollecting:
		return ErrDetailsOpen
	}
	return nil
}

// selectionChangedLocked drops the fare of the previous triple, supersedes any
// in-flight fare fetch and recomputes the state.
func (f *Flow) selectionChangedLocked() {
	f.fare = nil
	f.fareFor = Selection{}
	f.fareSeq++
	f.fareLoading = false
	if f.fareCancel != nil {
		f.fareCancel()
		f.fareCancel = nil
	}
	f.setStateLocked(f.selectionStateLocked())
}

func (f *Flow) selectionStateLocked() State {
	switch {
	case f.sel.Complete():
		return VehicleSelected
	case f.sel.Destination != "":
		return DestinationSelected
	case f.sel.Origin != "":
		return OriginSelected
	default:
		return Empty
	}
}

// refreshFare fetches the quote for the current triple. The response is applied
// only if no selection change happened meanwhile.
func (f *Flow) refreshFare(ctx context.Context) {
	f.mu.Lock()
	if !f.sel.Complete() {
		f.mu.Unlock()
		return
	}
	f.fareSeq++
	seq := f.fareSeq
	sel := f.sel
	if f.fareCancel != nil {
		f.fareCancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	f.fareCancel = cancel
	f.fareLoading = true
	f.mu.Unlock()

	quote, err := f.api.FetchFare(fetchCtx, sel.Origin, sel.Destination, sel.Vehicle)

	f.mu.Lock()
	defer f.mu.Unlock()
	cancel()
	if seq != f.fareSeq || sel != f.sel {
		f.log.WithField("seq", seq).Debug("Discarding stale fare")
		return
	}
	f.fareCancel = nil
	f.fareLoading = false
	if err != nil {
		f.fare = nil
		f.log.WithError(err).WithFields(logrus.Fields{
			"origin":       sel.Origin,
			"destination":  sel.Destination,
			"vehicle_type": sel.Vehicle,
		}).Warn("Fare unavailable")
		return
	}
	f.fare = &quote
	f.fareFor = sel
}

// Confirm opens the details step once the triple is complete.
func (f *Flow) Confirm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	if !f.sel.Complete() {
		return ErrIncompleteSelection
	}
	f.errMsg = ""
	f.setStateLocked(DetailsCollecting)
	return nil
}

// Cancel closes the details step and keeps the selection and typed details.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	if f.state != DetailsCollecting {
		return ErrNotCollecting
	}
	f.setStateLocked(f.selectionStateLocked())
	return nil
}

// SetDetails replaces the rider form. Switching to an immediate trip clears the schedule.
func (f *Flow) SetDetails(d CustomerDetails) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	if d.IsNowTrip {
		d.DateTrip, d.HourTrip = "", ""
	}
	f.details = d
	return nil
}

// SetNowTrip toggles between an immediate and a scheduled trip.
func (f *Flow) SetNowTrip(now bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrBusy
	}
	f.details.IsNowTrip = now
	if now {
		f.details.DateTrip, f.details.HourTrip = "", ""
	}
	return nil
}

// Validate reports what blocks submission. It never changes the flow.
func (f *Flow) Validate() *ValidationError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Validate(f.sel, f.details, f.tr)
}

// submittedFareLocked prefers the route-table price over the fetched quote.
// A zero amount counts as missing on either side.
func (f *Flow) submittedFareLocked() (float64, bool) {
	if p, ok := catalog.PriceFor(f.routes, f.sel.Origin, f.sel.Destination, f.sel.Vehicle); ok && p.Price > 0 {
		return p.Price, true
	}
	if f.fare != nil && f.fareFor == f.sel && f.fare.Fare > 0 {
		return f.fare.Fare, true
	}
	return 0, false
}

// Submit sends the trip request. On success the hand-off is saved, the flow is
// reset and the tracker opened. On failure the details step stays open with the
// form intact and the error message set.
func (f *Flow) Submit(ctx context.Context) (models.TripSubmissionResult, error) {
	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return models.TripSubmissionResult{}, ErrBusy
	}
	if f.state != DetailsCollecting {
		f.mu.Unlock()
		return models.TripSubmissionResult{}, ErrNotCollecting
	}
	if verr := Validate(f.sel, f.details, f.tr); verr != nil {
		f.errMsg = verr.Message
		f.mu.Unlock()
		return models.TripSubmissionResult{}, verr
	}
	fare, ok := f.submittedFareLocked()
	if !ok {
		f.errMsg = f.tr.T(i18n.ErrNoFare)
		f.mu.Unlock()
		return models.TripSubmissionResult{}, ErrNoFare
	}

	req := models.TripRequest{
		Origin:           f.sel.Origin,
		Destination:      f.sel.Destination,
		TypeTrip:         f.sel.Vehicle.TripType(),
		Fare:             fare,
		CustomerTripInfo: f.details.TripInfo(),
		PickupLocation:   models.Unresolved,
		DropoffLocation:  models.Unresolved,
	}
	summary := models.TripHandoff{
		Origin:        f.sel.Origin,
		Destination:   f.sel.Destination,
		VehicleType:   f.sel.Vehicle.LabelIn(f.tr.Lang()),
		Fare:          fare,
		CustomerName:  req.CustomerTripInfo.Name,
		ScheduledTime: f.details.ScheduledTime(),
	}
	f.errMsg = ""
	f.setStateLocked(Submitting)
	f.mu.Unlock()

	result, err := f.api.RequestTrip(ctx, req)
	if err != nil {
		msg := api.ServerMessage(err)
		if msg == "" {
			msg = f.tr.T(i18n.ErrRequestFailed)
		}
		f.log.WithError(err).WithFields(logrus.Fields{
			"origin":      req.Origin,
			"destination": req.Destination,
		}).Warn("Trip request failed")

		f.mu.Lock()
		f.errMsg = msg
		f.setStateLocked(Failed)
		f.setStateLocked(DetailsCollecting)
		f.mu.Unlock()
		return models.TripSubmissionResult{}, err
	}

	if f.store != nil {
		summary.CreatedAt = f.now()
		if err := f.store.Save(ctx, result.RequestID, summary); err != nil {
			f.log.WithError(err).WithField("request_id", result.RequestID).Warn("Failed to save trip handoff")
		}
	}

	f.mu.Lock()
	f.setStateLocked(Succeeded)
	f.resetLocked()
	f.ack = &Acknowledgement{
		Title:           f.tr.T(i18n.RideRequested),
		Detail:          f.tr.T(i18n.RideRequestedDetail, result.RequestID, result.DriversNotified),
		TripID:          result.TripID,
		RequestID:       result.RequestID,
		DriversNotified: result.DriversNotified,
		Until:           f.now().Add(AcknowledgementTTL),
	}
	f.mu.Unlock()

	f.log.WithFields(logrus.Fields{
		"request_id":       result.RequestID,
		"trip_code":        result.TripCode,
		"drivers_notified": result.DriversNotified,
	}).Info("Trip requested")

	if f.nav != nil {
		if err := f.nav.OpenTracker(result.RequestID); err != nil {
			f.log.WithError(err).WithField("request_id", result.RequestID).Warn("Failed to open trip tracker")
		}
	}
	return result, nil
}

// resetLocked clears selection and details back to a fresh form.
func (f *Flow) resetLocked() {
	f.sel = Selection{}
	f.details = DefaultDetails()
	f.errMsg = ""
	f.selectionChangedLocked()
}

// Acknowledgement returns the success notice while it is still current.
func (f *Flow) Acknowledgement() (Acknowledgement, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ack == nil || !f.now().Before(f.ack.Until) {
		f.ack = nil
		return Acknowledgement{}, false
	}
	return *f.ack, true
}

// DismissError clears the visible error message.
func (f *Flow) DismissError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errMsg = ""
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns a copy of everything a renderer needs.
func (f *Flow) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		State:       f.state,
		Selection:   f.sel,
		FareLoading: f.fareLoading,
		Details:     f.details,
		Error:       f.errMsg,
		RoutesReady: f.routesReady,
	}
	if f.fare != nil && f.fareFor == f.sel {
		q := *f.fare
		v.Fare = &q
	}
	return v
}

func (f *Flow) setStateLocked(to State) {
	from := f.state
	if from == to {
		return
	}
	f.state = to
	f.log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).Debug("Ride flow transition")
	if f.OnTransition != nil {
		f.OnTransition(from, to)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
