package models

import (
	"time"
)

// CustomerTripInfo is the rider contact and comfort data sent with a trip request.
type CustomerTripInfo struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	IsNowTrip   bool   `json:"isNowTrip"`
	DateTrip    string `json:"dateTrip,omitempty"`
	HourTrip    string `json:"hourTrip,omitempty"`
	Temperature string `json:"temperature,omitempty"` // e.g. "22°C"
	Bags        int    `json:"bags"`
	MusicActive bool   `json:"musicActive"`
}

// TripRequest is the body of POST /trips/request.
type TripRequest struct {
	Origin           string           `json:"origin"`
	Destination      string           `json:"destination"`
	TypeTrip         string           `json:"typeTrip"`
	Fare             float64          `json:"fare"`
	CustomerTripInfo CustomerTripInfo `json:"customerTripInfo"`
	PickupLocation   Coordinates      `json:"pickupLocation"`
	DropoffLocation  Coordinates      `json:"dropoffLocation"`
}

// TripSubmissionResult is returned by the server once it accepts a trip request.
type TripSubmissionResult struct {
	TripID          string  `json:"tripId"`
	RequestID       string  `json:"requestId"`
	TripCode        string  `json:"tripCode"`
	Fare            float64 `json:"fare"`
	EstimatedTime   float64 `json:"estimatedTime"`
	DriversNotified int     `json:"driversNotified"`
}

// DriverVehicle describes the car assigned to a trip.
type DriverVehicle struct {
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Color       string `json:"color"`
	PlateNumber string `json:"plateNumber"`
}

// Driver is the driver assigned to a trip, once one accepted it.
type Driver struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Vehicle         DriverVehicle `json:"vehicle"`
	CurrentLocation Coordinates   `json:"currentLocation"`
	Photo           string        `json:"photo"`
	Rating          float64       `json:"rating"`
}

// TripStatus is a server-owned snapshot of a trip request.
type TripStatus struct {
	TripID           string         `json:"tripId,omitempty"`
	RequestID        string         `json:"requestId"`
	Status           TripStatusCode `json:"status"`
	InitiatedAt      time.Time      `json:"initiatedAt"`
	PickupLocation   Coordinates    `json:"pickupLocation"`
	DropoffLocation  Coordinates    `json:"dropoffLocation"`
	Driver           *Driver        `json:"driver,omitempty"`
	EstimatedArrival string         `json:"estimatedArrival,omitempty"`
}

// TripHandoff is the summary persisted at submission so the tracker can label the trip.
type TripHandoff struct {
	Origin        string    `json:"origin" bson:"origin"`
	Destination   string    `json:"destination" bson:"destination"`
	VehicleType   string    `json:"vehicleType" bson:"vehicle_type"` // display label
	Fare          float64   `json:"fare" bson:"fare"`
	CustomerName  string    `json:"customerName" bson:"customer_name"`
	ScheduledTime string    `json:"scheduledTime,omitempty" bson:"scheduled_time,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// Envelope wraps the submission and status responses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
