// Package config loads gateway configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAddressesBaseURL = "https://atomic-a.example.com"
	DefaultUsersBaseURL     = "https://atomic-b.example.com"
	DefaultPort             = 8080
	DefaultUpstreamTimeout  = 10 * time.Second
)

// Config holds the runtime configuration for the composite gateway.
type Config struct {
	// Port the gateway listens on (GATEWAY_PORT).
	Port int

	// AddressesBaseURL is the Addresses atomic service base URL
	// (ADDRESSES_SERVICE_URL).
	AddressesBaseURL string

	// UsersBaseURL is the Users atomic service base URL (USERS_SERVICE_URL).
	UsersBaseURL string

	// UpstreamTimeout bounds every individual upstream call
	// (UPSTREAM_TIMEOUT_SECONDS).
	UpstreamTimeout time.Duration

	// FanoutWorkers caps concurrent upstream fetches within one composite
	// read (FANOUT_WORKERS).
	FanoutWorkers int

	// RateLimitRPS / RateLimitBurst configure per-client rate limiting
	// (RATE_LIMIT_RPS, RATE_LIMIT_BURST). RPS of 0 disables limiting.
	RateLimitRPS   int
	RateLimitBurst int

	// AllowedOrigins for CORS (CORS_ALLOWED_ORIGINS, comma separated).
	AllowedOrigins []string
}

// Load reads configuration from the environment, filling in defaults.
func Load() Config {
	cfg := Config{
		Port:             envInt("GATEWAY_PORT", DefaultPort),
		AddressesBaseURL: envString("ADDRESSES_SERVICE_URL", DefaultAddressesBaseURL),
		UsersBaseURL:     envString("USERS_SERVICE_URL", DefaultUsersBaseURL),
		FanoutWorkers:    envInt("FANOUT_WORKERS", 4),
		RateLimitRPS:     envInt("RATE_LIMIT_RPS", 0),
		RateLimitBurst:   envInt("RATE_LIMIT_BURST", 20),
		AllowedOrigins:   splitAndTrimCSV(envString("CORS_ALLOWED_ORIGINS", "*")),
	}

	timeoutSecs := envInt("UPSTREAM_TIMEOUT_SECONDS", 0)
	if timeoutSecs > 0 {
		cfg.UpstreamTimeout = time.Duration(timeoutSecs) * time.Second
	} else {
		cfg.UpstreamTimeout = DefaultUpstreamTimeout
	}

	// Base URLs are joined with request paths; a trailing slash would
	// produce double-slash URLs upstream.
	cfg.AddressesBaseURL = strings.TrimRight(cfg.AddressesBaseURL, "/")
	cfg.UsersBaseURL = strings.TrimRight(cfg.UsersBaseURL, "/")

	return cfg
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func splitAndTrimCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
