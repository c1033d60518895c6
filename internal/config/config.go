package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/house-display/internal/timetable"
)

var validate = validator.New()

type AppConfig struct {
	Port string

	// HTTPTimeout bounds every outbound search request.
	HTTPTimeout time.Duration

	// SecretFile holds the Ekispert API key (first token of the file).
	SecretFile string

	// RouteFile optionally overrides the built-in route with YAML.
	RouteFile string
	Route     timetable.RouteConfig

	// Location is the zone "now" is read in when building queries.
	Location *time.Location

	PartialPolicy timetable.PartialPolicy

	// WatchInterval controls how often the watch command searches.
	WatchInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.SecretFile = getenvDefault("TIMETABLE_SECRET_FILE", "ekispert.key")
	cfg.RouteFile = os.Getenv("TIMETABLE_ROUTE_FILE")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	interval, err := time.ParseDuration(getenvDefault("WATCH_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WATCH_INTERVAL: %w", err)
	}
	if interval < time.Minute {
		return nil, fmt.Errorf("invalid WATCH_INTERVAL: %s is below one minute", interval)
	}
	cfg.WatchInterval = interval

	loc, err := time.LoadLocation(getenvDefault("TIMETABLE_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMETABLE_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	policy, err := timetable.ParsePartialPolicy(os.Getenv("TIMETABLE_PARTIAL_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMETABLE_PARTIAL_POLICY: %w", err)
	}
	cfg.PartialPolicy = policy

	route, err := LoadRoute(cfg.RouteFile)
	if err != nil {
		return nil, err
	}
	cfg.Route = route

	return cfg, nil
}

// LoadRoute returns the default route, overlaid with the YAML file at path when
// path is set. Environment variables in the file are expanded.
func LoadRoute(path string) (timetable.RouteConfig, error) {
	route := timetable.DefaultRoute()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return route, fmt.Errorf("failed to read route file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &route); err != nil {
			return route, fmt.Errorf("failed to parse route file %s: %w", path, err)
		}
	}

	if err := ValidateRoute(route); err != nil {
		return route, err
	}
	return route, nil
}

// ValidateRoute checks the struct tags on route.
func ValidateRoute(route timetable.RouteConfig) error {
	if err := validate.Struct(route); err != nil {
		return fmt.Errorf("route validation failed: %w", err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
