package ride

import (
	"strconv"
	"strings"

	"github.com/ukydev/triptap-rides/internal/i18n"
	"github.com/ukydev/triptap-rides/internal/models"
)

// Field names reported by ValidationError.
const (
	FieldOrigin      = "origin"
	FieldDestination = "destination"
	FieldVehicle     = "vehicleType"
	FieldName        = "name"
	FieldContact     = "contact"
	FieldDateTrip    = "dateTrip"
	FieldHourTrip    = "hourTrip"
	FieldBags        = "bags"
)

// CustomerDetails is the rider form as typed, before conversion to CustomerTripInfo.
type CustomerDetails struct {
	Name        string
	Email       string
	Phone       string
	IsNowTrip   bool
	DateTrip    string
	HourTrip    string
	Temperature string // degrees Celsius
	Bags        string
	MusicActive bool
}

// DefaultDetails is the form a rider starts from.
func DefaultDetails() CustomerDetails {
	return CustomerDetails{
		IsNowTrip:   true,
		Temperature: "22",
		Bags:        "0",
	}
}

// ScheduledTime is "date hour" for a scheduled trip and empty for an immediate one.
func (d CustomerDetails) ScheduledTime() string {
	if d.IsNowTrip {
		return ""
	}
	return strings.TrimSpace(d.DateTrip + " " + d.HourTrip)
}

func (d CustomerDetails) bags() (int, bool) {
	s := strings.TrimSpace(d.Bags)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// TripInfo converts the form into the submitted payload. Call Validate first.
func (d CustomerDetails) TripInfo() models.CustomerTripInfo {
	info := models.CustomerTripInfo{
		Name:        strings.TrimSpace(d.Name),
		Email:       strings.TrimSpace(d.Email),
		Phone:       strings.TrimSpace(d.Phone),
		IsNowTrip:   d.IsNowTrip,
		MusicActive: d.MusicActive,
	}
	if t := strings.TrimSpace(d.Temperature); t != "" {
		info.Temperature = t + "°C"
	}
	info.Bags, _ = d.bags()
	if !d.IsNowTrip {
		info.DateTrip = d.DateTrip
		info.HourTrip = d.HourTrip
	}
	return info
}

// ValidationError lists every missing or invalid field. Message is the
// translated text of the first one.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid ride request: " + strings.Join(e.Fields, ", ")
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Validate checks a selection and a form. It is a pure function of its inputs.
func Validate(sel Selection, d CustomerDetails, tr i18n.Translator) *ValidationError {
	var fields []string
	var msgKey string
	fail := func(field, key string) {
		fields = append(fields, field)
		if msgKey == "" {
			msgKey = key
		}
	}

	if sel.Origin == "" {
		fail(FieldOrigin, i18n.ErrSelection)
	}
	if sel.Destination == "" {
		fail(FieldDestination, i18n.ErrSelection)
	}
	if sel.Vehicle == "" {
		fail(FieldVehicle, i18n.ErrSelection)
	}
	if strings.TrimSpace(d.Name) == "" {
		fail(FieldName, i18n.ErrNameRequired)
	}
	if strings.TrimSpace(d.Email) == "" && strings.TrimSpace(d.Phone) == "" {
		fail(FieldContact, i18n.ErrContactRequired)
	}
	if !d.IsNowTrip {
		if strings.TrimSpace(d.DateTrip) == "" {
			fail(FieldDateTrip, i18n.ErrScheduleRequired)
		}
		if strings.TrimSpace(d.HourTrip) == "" {
			fail(FieldHourTrip, i18n.ErrScheduleRequired)
		}
	}
	if _, ok := d.bags(); !ok {
		fail(FieldBags, i18n.ErrBags)
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields, Message: tr.T(msgKey)}
}

// Selection is the (origin, destination, vehicle) triple being built.
type Selection struct {
	Origin      string
	Destination string
	Vehicle     models.VehicleType
}

// Complete reports whether all three parts are set.
func (s Selection) Complete() bool {
	return s.Origin != "" && s.Destination != "" && s.Vehicle != ""
}
