package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ukydev/triptap-rides/internal/models"
)

// FetchAllRoutes returns every predefined route. Both a bare array and a {data: [...]}
// envelope are accepted; any route failing validation fails the whole fetch.
func (c *Client) FetchAllRoutes(ctx context.Context) ([]models.Route, error) {
	body, err := c.do(ctx, http.MethodGet, "/predefined-routes/all", nil)
	if err != nil {
		return nil, err
	}
	payload := unwrapData(body)
	if len(payload) == 0 || payload[0] != '[' {
		return nil, fmt.Errorf("%w: expected a list of routes", ErrInvalidResponse)
	}
	var routes []models.Route
	if err := decode(payload, &routes); err != nil {
		return nil, err
	}
	for _, r := range routes {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	return routes, nil
}

// FetchRoutesByOrigin returns the route starting at origin.
func (c *Client) FetchRoutesByOrigin(ctx context.Context, origin string) (models.Route, error) {
	if origin == "" {
		return models.Route{}, fmt.Errorf("origin is required")
	}
	body, err := c.do(ctx, http.MethodGet, "/predefined-routes/origin/"+url.PathEscape(origin), nil)
	if err != nil {
		return models.Route{}, err
	}
	var route models.Route
	if err := decode(unwrapData(body), &route); err != nil {
		return models.Route{}, err
	}
	if err := route.Validate(); err != nil {
		return models.Route{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return route, nil
}

// FetchFare asks the server to price the triple. It never calls out with a partial selection.
func (c *Client) FetchFare(ctx context.Context, origin, destination string, vehicle models.VehicleType) (models.FareQuote, error) {
	if origin == "" || destination == "" || vehicle == "" {
		return models.FareQuote{}, ErrIncompleteSelection
	}
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("vehicleType", string(vehicle))

	body, err := c.do(ctx, http.MethodGet, "/predefined-routes/fare?"+q.Encode(), nil)
	if err != nil {
		return models.FareQuote{}, err
	}
	var raw struct {
		Fare          *float64 `json:"fare"`
		EstimatedTime float64  `json:"estimatedTime"`
	}
	if err := decode(unwrapData(body), &raw); err != nil {
		return models.FareQuote{}, err
	}
	if raw.Fare == nil {
		return models.FareQuote{}, fmt.Errorf("%w: fare missing", ErrInvalidResponse)
	}
	quote := models.FareQuote{Fare: *raw.Fare, EstimatedTime: raw.EstimatedTime}
	if err := quote.Validate(); err != nil {
		return models.FareQuote{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return quote, nil
}

// RequestTrip submits a trip request. A success=false answer comes back as *Error
// carrying the server message.
func (c *Client) RequestTrip(ctx context.Context, req models.TripRequest) (models.TripSubmissionResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/trips/request", req)
	if err != nil {
		return models.TripSubmissionResult{}, err
	}
	var env models.Envelope[models.TripSubmissionResult]
	if err := decode(body, &env); err != nil {
		return models.TripSubmissionResult{}, err
	}
	if !env.Success {
		return models.TripSubmissionResult{}, &Error{StatusCode: http.StatusOK, Message: env.Message}
	}
	if err := env.Data.Validate(); err != nil {
		return models.TripSubmissionResult{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return env.Data, nil
}

// FetchStatus returns the current status snapshot of a trip request.
func (c *Client) FetchStatus(ctx context.Context, requestID string) (models.TripStatus, error) {
	if requestID == "" {
		return models.TripStatus{}, ErrMissingRequestID
	}
	body, err := c.do(ctx, http.MethodGet, "/trips/status/"+url.PathEscape(requestID), nil)
	if err != nil {
		return models.TripStatus{}, err
	}
	var env models.Envelope[models.TripStatus]
	if err := decode(body, &env); err != nil {
		return models.TripStatus{}, err
	}
	if !env.Success {
		return models.TripStatus{}, &Error{StatusCode: http.StatusOK, Message: env.Message}
	}
	if err := env.Data.Validate(); err != nil {
		return models.TripStatus{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return env.Data, nil
}
