package models

import "fmt"

// TripStatusCode is the server-side lifecycle state of a trip request.
type TripStatusCode string

const (
	StatusRequested       TripStatusCode = "REQUESTED"
	StatusAccepted        TripStatusCode = "ACCEPTED"
	StatusInRoute         TripStatusCode = "IN_ROUTE"
	StatusArrivedAtPickup TripStatusCode = "ARRIVED_AT_PICKUP"
	StatusInProgress      TripStatusCode = "IN_PROGRESS"
	StatusCompleted       TripStatusCode = "COMPLETED"
	StatusCancelled       TripStatusCode = "CANCELLED"
)

// StageList is the fixed display order of a trip. CANCELLED is not part of it.
var StageList = []TripStatusCode{
	StatusRequested,
	StatusAccepted,
	StatusInRoute,
	StatusArrivedAtPickup,
	StatusInProgress,
	StatusCompleted,
}

// StageIndex returns the position of s in StageList, or -1.
func StageIndex(s TripStatusCode) int {
	for i, st := range StageList {
		if st == s {
			return i
		}
	}
	return -1
}

// IsTerminal reports whether no further status changes are expected.
func (s TripStatusCode) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsValidStatus checks if a status is known
func IsValidStatus(s TripStatusCode) bool {
	return s == StatusCancelled || StageIndex(s) >= 0
}

// Validate rejects snapshots the tracker cannot render.
func (t TripStatus) Validate() error {
	if t.RequestID == "" {
		return fmt.Errorf("invalid trip status: missing requestId")
	}
	if !IsValidStatus(t.Status) {
		return fmt.Errorf("invalid trip status: unknown status %q", t.Status)
	}
	return nil
}

// Validate rejects submission results without a trackable request id.
func (r TripSubmissionResult) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("invalid trip submission result: missing requestId")
	}
	return nil
}
