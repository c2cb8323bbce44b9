package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/triptap-rides/internal/models"
)

func newTestAPI(t *testing.T, ticks int) (*TripAPI, *http.ServeMux) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	api := NewTripAPI(DemoRoutes(), ticks, logger)
	return api, api.Routes()
}

func validRequest() models.TripRequest {
	return models.TripRequest{
		Origin:      "Airport",
		Destination: "Downtown",
		TypeTrip:    "standard",
		Fare:        20,
		CustomerTripInfo: models.CustomerTripInfo{
			Name:      "Ana",
			Email:     "ana@example.com",
			IsNowTrip: true,
		},
	}
}

func submit(t *testing.T, mux *http.ServeMux, req models.TripRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/api/trips/request", bytes.NewReader(body)))
	return w
}

func TestListRoutes(t *testing.T) {
	_, mux := newTestAPI(t, 1)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/predefined-routes/all", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var env models.Envelope[[]models.Route]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Len(t, env.Data, len(DemoRoutes()))
}

func TestRouteByOrigin(t *testing.T) {
	_, mux := newTestAPI(t, 1)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/predefined-routes/origin/Punta%20Cana", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Bavaro")

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/predefined-routes/origin/Nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFare(t *testing.T) {
	_, mux := newTestAPI(t, 1)

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantFare float64
	}{
		{"priced triple", "?origin=Airport&destination=Downtown&vehicleType=LUXURY", http.StatusOK, 45},
		{"missing vehicle", "?origin=Airport&destination=Downtown", http.StatusBadRequest, 0},
		{"unpriced vehicle", "?origin=Punta+Cana&destination=Cap+Cana&vehicleType=LUXURY", http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/predefined-routes/fare"+tt.query, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				var q models.FareQuote
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
				assert.Equal(t, tt.wantFare, q.Fare)
			}
		})
	}
}

func TestRequestTrip(t *testing.T) {
	_, mux := newTestAPI(t, 1)

	t.Run("accepted", func(t *testing.T) {
		w := submit(t, mux, validRequest())
		assert.Equal(t, http.StatusCreated, w.Code)

		var env models.Envelope[models.TripSubmissionResult]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.True(t, env.Success)
		assert.Regexp(t, `^REQ[0-9A-F]{10}$`, env.Data.RequestID)
		assert.Regexp(t, `^TT-[0-9A-F]{6}$`, env.Data.TripCode)
		assert.Equal(t, 20.0, env.Data.Fare)
		assert.Equal(t, 25.0, env.Data.EstimatedTime)
		assert.Equal(t, 3, env.Data.DriversNotified)
	})

	t.Run("rejections", func(t *testing.T) {
		noContact := validRequest()
		noContact.CustomerTripInfo.Email = ""

		unscheduled := validRequest()
		unscheduled.CustomerTripInfo.IsNowTrip = false

		noFare := validRequest()
		noFare.Fare = 0

		unknownRoute := validRequest()
		unknownRoute.Destination = "Moon"

		for name, req := range map[string]models.TripRequest{
			"no contact":    noContact,
			"unscheduled":   unscheduled,
			"no fare":       noFare,
			"unknown route": unknownRoute,
		} {
			t.Run(name, func(t *testing.T) {
				w := submit(t, mux, req)
				assert.GreaterOrEqual(t, w.Code, 400)
				assert.Contains(t, w.Body.String(), `"success":false`)
			})
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("POST", "/api/trips/request", bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatusProgression(t *testing.T) {
	_, mux := newTestAPI(t, 2)

	var env models.Envelope[models.TripSubmissionResult]
	require.NoError(t, json.Unmarshal(submit(t, mux, validRequest()).Body.Bytes(), &env))
	id := env.Data.RequestID

	poll := func() models.TripStatus {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/trips/status/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
		var st models.Envelope[models.TripStatus]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
		return st.Data
	}

	var seen []models.TripStatusCode
	for i := 0; i < 14; i++ {
		seen = append(seen, poll().Status)
	}

	assert.Equal(t, models.StatusRequested, seen[0])
	assert.Equal(t, models.StatusAccepted, seen[1])
	assert.Equal(t, models.StatusAccepted, seen[2])
	assert.Equal(t, models.StatusCompleted, seen[len(seen)-1])

	last := poll()
	require.NotNil(t, last.Driver)
	assert.Equal(t, "Carlos Martinez", last.Driver.Name)
	assert.Equal(t, id, last.RequestID)
}

func TestStatusUnknownTrip(t *testing.T) {
	_, mux := newTestAPI(t, 1)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/trips/status/REQMISSING", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancel(t *testing.T) {
	_, mux := newTestAPI(t, 1)

	var env models.Envelope[models.TripSubmissionResult]
	require.NoError(t, json.Unmarshal(submit(t, mux, validRequest()).Body.Bytes(), &env))
	id := env.Data.RequestID

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/api/trips/"+id+"/cancel", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(models.StatusCancelled))

	// A cancelled trip stays cancelled and cannot be cancelled twice.
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/trips/status/"+id, nil))
	assert.Contains(t, w.Body.String(), string(models.StatusCancelled))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("POST", "/api/trips/"+id+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRequestTripLogsFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	mux := NewTripAPI(DemoRoutes(), 1, logger).Routes()

	submit(t, mux, validRequest())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "Airport", hook.LastEntry().Data["origin"])
}

func TestHealth(t *testing.T) {
	_, mux := newTestAPI(t, 1)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
