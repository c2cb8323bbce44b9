package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/triptap-rides/internal/auth"
	"github.com/ukydev/triptap-rides/internal/config"
	"github.com/ukydev/triptap-rides/internal/handlers"
	"github.com/ukydev/triptap-rides/internal/middleware"
)

const (
	rateLimitRequests = 600
	rateLimitWindow   = 60 // seconds
)

// newHandler assembles the simulator API. Bearer auth is enforced only when a
// signing secret is configured, and the rate limit then applies per rider.
func newHandler(cfg config.Config, logger log.FieldLogger) http.Handler {
	tripAPI := handlers.NewTripAPI(handlers.DemoRoutes(), cfg.Simulator.TicksPerStage, logger)

	h := middleware.NewRateLimitMiddleware().RateLimit(rateLimitRequests, rateLimitWindow)(tripAPI.Routes())
	if cfg.API.JWTSecret != "" {
		svc := auth.NewService("", cfg.API.JWTSecret, cfg.API.ClientID, 0)
		h = middleware.NewAuthMiddleware(svc).Authenticate(h)
	}
	return h
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	srv := &http.Server{
		Addr:              cfg.Simulator.Addr,
		Handler:           newHandler(cfg, log.StandardLogger()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Simulator shutdown failed")
		}
	}()

	log.WithFields(log.Fields{
		"addr":            cfg.Simulator.Addr,
		"ticks_per_stage": cfg.Simulator.TicksPerStage,
		"auth":            cfg.API.JWTSecret != "",
	}).Info("Starting TripTap simulator")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Simulator stopped")
	}
	log.Info("Simulator stopped")
}
