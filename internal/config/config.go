// Package config loads and validates service configuration from environment
// variables and the flow catalog from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all service configuration.
type Config struct {
	// Server settings.
	HTTPAddr string

	// Storage settings.
	StoreDriver string // "postgres" or "memory"
	PostgresDSN string

	// Telemetry source.
	TelemetryURL string

	// CatalogPath is a YAML catalog file; empty uses the embedded default.
	CatalogPath string

	// Aggregation settings.
	ViewShards int

	// Refresh re-ingests the trailing RefreshWindow every RefreshInterval.
	// A zero interval disables it.
	RefreshInterval time.Duration
	RefreshWindow   time.Duration

	LogLevel string
}

// Load reads configuration from the environment. Malformed values are
// reported together rather than silently replaced by defaults.
func Load() (Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := Config{
		HTTPAddr:     envStr("HTTP_ADDR", ":8080"),
		StoreDriver:  envStr("STORE_DRIVER", StoreDriverPostgres),
		PostgresDSN:  envStr("POSTGRES_DSN", ""),
		TelemetryURL: envStr("TELEMETRY_URL", "http://localhost:3000"),
		CatalogPath:  envStr("CATALOG_PATH", ""),
		LogLevel:     envStr("LOG_LEVEL", "info"),
	}

	var err error
	cfg.ViewShards, err = envInt("VIEW_SHARDS", 4)
	collect(err)
	cfg.RefreshInterval, err = envDuration("REFRESH_INTERVAL", 0)
	collect(err)
	cfg.RefreshWindow, err = envDuration("REFRESH_WINDOW", 48*time.Hour)
	collect(err)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks that required fields are present and values are sane.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required when STORE_DRIVER=%s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	if c.TelemetryURL == "" {
		return errors.New("config: TELEMETRY_URL is required")
	}
	if c.ViewShards < 1 {
		return fmt.Errorf("config: VIEW_SHARDS must be positive, got %d", c.ViewShards)
	}
	if c.RefreshInterval < 0 || c.RefreshWindow < 0 {
		return errors.New("config: REFRESH_INTERVAL and REFRESH_WINDOW must not be negative")
	}
	if c.RefreshInterval > 0 && c.RefreshWindow == 0 {
		return errors.New("config: REFRESH_WINDOW is required when REFRESH_INTERVAL is set")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps LOG_LEVEL to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL=%q is not a valid level", s)
	}
	return l, nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
