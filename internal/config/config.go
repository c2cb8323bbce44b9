// Package config loads rider client and simulator settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Handoff backends.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

type Config struct {
	API struct {
		BaseURL   string
		Token     string
		JWTSecret string
		ClientID  string
		Timeout   time.Duration
	}
	Tracker struct {
		BaseURL      string
		PollInterval time.Duration
	}

	Lang string

	Handoff struct {
		Backend string
		TTL     time.Duration
	}
	Mongo struct {
		URI      string
		Database string
	}
	Redis struct {
		Addr string
	}
	MQTT struct {
		Broker      string
		TopicPrefix string
	}
	Log struct {
		Level  string
		Format string
	}
	Simulator struct {
		Addr          string
		TicksPerStage int
	}
}

// Load reads .env when present, then the process environment. Malformed
// numbers and durations fall back to their defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.API.BaseURL = envOrDefault("TRIPTAP_API_URL", "https://dev.triptapmedia.com/api")
	cfg.API.Token = os.Getenv("TRIPTAP_API_TOKEN")
	cfg.API.JWTSecret = os.Getenv("TRIPTAP_JWT_SECRET")
	cfg.API.ClientID = envOrDefault("TRIPTAP_CLIENT_ID", "rider-cli")
	cfg.API.Timeout = envOrDefaultDuration("TRIPTAP_REQUEST_TIMEOUT", 10*time.Second)

	cfg.Tracker.BaseURL = envOrDefault("TRACKER_BASE_URL", "https://triptapmedia.com")
	cfg.Tracker.PollInterval = envOrDefaultDuration("TRIPTAP_POLL_INTERVAL", 5*time.Second)
	cfg.Lang = envOrDefault("TRIPTAP_LANG", "es")

	cfg.Handoff.Backend = strings.ToLower(envOrDefault("HANDOFF_BACKEND", BackendMemory))
	cfg.Handoff.TTL = envOrDefaultDuration("HANDOFF_TTL", 24*time.Hour)
	cfg.Mongo.URI = os.Getenv("MONGO_URI")
	cfg.Mongo.Database = envOrDefault("MONGO_DB", "triptap")
	cfg.Redis.Addr = envOrDefault("REDIS_ADDR", "localhost:6379")

	cfg.MQTT.Broker = os.Getenv("MQTT_BROKER")
	cfg.MQTT.TopicPrefix = envOrDefault("MQTT_TOPIC_PREFIX", "triptap")

	cfg.Log.Level = envOrDefault("LOG_LEVEL", "info")
	cfg.Log.Format = os.Getenv("LOG_FORMAT")

	cfg.Simulator.Addr = envOrDefault("SIM_ADDR", ":8081")
	cfg.Simulator.TicksPerStage = envOrDefaultInt("SIM_TICKS_PER_STAGE", 2)

	switch cfg.Handoff.Backend {
	case BackendMemory, BackendMongo, BackendRedis:
	default:
		return cfg, fmt.Errorf("unknown HANDOFF_BACKEND %q", cfg.Handoff.Backend)
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
