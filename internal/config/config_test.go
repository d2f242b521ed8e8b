package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.AddressesBaseURL != DefaultAddressesBaseURL {
		t.Errorf("AddressesBaseURL = %s, want %s", cfg.AddressesBaseURL, DefaultAddressesBaseURL)
	}
	if cfg.UsersBaseURL != DefaultUsersBaseURL {
		t.Errorf("UsersBaseURL = %s, want %s", cfg.UsersBaseURL, DefaultUsersBaseURL)
	}
	if cfg.UpstreamTimeout != DefaultUpstreamTimeout {
		t.Errorf("UpstreamTimeout = %v, want %v", cfg.UpstreamTimeout, DefaultUpstreamTimeout)
	}
	if cfg.FanoutWorkers != 4 {
		t.Errorf("FanoutWorkers = %d, want 4", cfg.FanoutWorkers)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_PORT", "9090")
	t.Setenv("USERS_SERVICE_URL", "http://users.internal:8001/")
	t.Setenv("ADDRESSES_SERVICE_URL", "http://addresses.internal:8002")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.UsersBaseURL != "http://users.internal:8001" {
		t.Errorf("UsersBaseURL = %s, trailing slash should be trimmed", cfg.UsersBaseURL)
	}
	if cfg.UpstreamTimeout != 3*time.Second {
		t.Errorf("UpstreamTimeout = %v, want 3s", cfg.UpstreamTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("GATEWAY_PORT", "not-a-port")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "-1")

	cfg := Load()

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default %d", cfg.Port, DefaultPort)
	}
	if cfg.UpstreamTimeout != DefaultUpstreamTimeout {
		t.Errorf("UpstreamTimeout = %v, want default %v", cfg.UpstreamTimeout, DefaultUpstreamTimeout)
	}
}
