package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/triptap-rides/internal/api"
	"github.com/ukydev/triptap-rides/internal/auth"
	"github.com/ukydev/triptap-rides/internal/config"
)

func TestNewHandler_Anonymous(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var cfg config.Config
	cfg.Simulator.TicksPerStage = 1

	srv := httptest.NewServer(newHandler(cfg, logger))
	defer srv.Close()

	routes, err := api.NewClient(srv.URL + "/api").FetchAllRoutes(context.Background())
	require.NoError(t, err)
	assert.Len(t, routes, 3)
}

func TestNewHandler_RequiresTokenWhenSecretSet(t *testing.T) {
	logger, _ := test.NewNullLogger()
	var cfg config.Config
	cfg.API.JWTSecret = "sim-secret"
	cfg.API.ClientID = "rider-test"

	srv := httptest.NewServer(newHandler(cfg, logger))
	defer srv.Close()

	t.Run("no token", func(t *testing.T) {
		_, err := api.NewClient(srv.URL + "/api").FetchAllRoutes(context.Background())
		var apiErr *api.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("signed token", func(t *testing.T) {
		tokens := auth.NewService("", "sim-secret", "rider-test", time.Minute)
		client := api.NewClient(srv.URL+"/api", api.WithTokenSource(tokens))
		quote, err := client.FetchFare(context.Background(), "Airport", "Downtown", "LUXURY")
		require.NoError(t, err)
		assert.Equal(t, 45.0, quote.Fare)
	})

	t.Run("health stays open", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
