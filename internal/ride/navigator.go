package ride

import (
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Navigator opens the trip tracker for a submitted request.
type Navigator interface {
	OpenTracker(requestID string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(requestID string) error

func (f NavigatorFunc) OpenTracker(requestID string) error { return f(requestID) }

// TrackerURL is the shareable tracker page of a request.
func TrackerURL(baseURL, requestID string) string {
	return strings.TrimRight(baseURL, "/") + "/trip-status/" + url.PathEscape(requestID)
}

// LogNavigator prints the tracker URL instead of opening it.
type LogNavigator struct {
	BaseURL string
	Log     logrus.FieldLogger
}

func (n LogNavigator) OpenTracker(requestID string) error {
	log := n.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"request_id": requestID,
		"url":        TrackerURL(n.BaseURL, requestID),
	}).Info("Trip tracker available")
	return nil
}
