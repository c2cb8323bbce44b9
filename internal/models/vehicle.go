package models

// VehicleType is the vehicle class a rider picks; it drives both price and trip type.
type VehicleType string

const (
	VehicleNormal  VehicleType = "NORMAL"
	VehicleLuxury  VehicleType = "LUXURY"
	VehicleMinivan VehicleType = "MINIVAN"
)

// VehicleInfo describes how a vehicle type is offered to riders.
type VehicleInfo struct {
	Type     VehicleType
	Label    map[string]string // language -> display name
	Capacity string
	TripType string // value sent as typeTrip
}

// Vehicles lists the vehicle types in display order.
var Vehicles = []VehicleInfo{
	{Type: VehicleNormal, Label: map[string]string{"es": "Normal", "en": "Normal"}, Capacity: "4", TripType: "standard"},
	{Type: VehicleMinivan, Label: map[string]string{"es": "Minivan", "en": "Minivan"}, Capacity: "6-8", TripType: "premium"},
	{Type: VehicleLuxury, Label: map[string]string{"es": "Luxury", "en": "Luxury"}, Capacity: "4", TripType: "luxury"},
}

// IsValidVehicleType checks if a vehicle type is known
func IsValidVehicleType(v VehicleType) bool {
	switch v {
	case VehicleNormal, VehicleLuxury, VehicleMinivan:
		return true
	default:
		return false
	}
}

// Info returns the catalog entry for v.
func (v VehicleType) Info() (VehicleInfo, bool) {
	for _, info := range Vehicles {
		if info.Type == v {
			return info, true
		}
	}
	return VehicleInfo{}, false
}

// TripType maps the vehicle type to the API trip type, defaulting to "standard".
func (v VehicleType) TripType() string {
	if info, ok := v.Info(); ok {
		return info.TripType
	}
	return "standard"
}

// LabelIn returns the display label for lang, falling back to the raw enum value.
func (v VehicleType) LabelIn(lang string) string {
	info, ok := v.Info()
	if !ok {
		return string(v)
	}
	if l, ok := info.Label[lang]; ok {
		return l
	}
	return info.Label["en"]
}
