package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("pinpoint-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Telemetry.ServiceName != "pinpoint-test" {
		t.Errorf("telemetry.service_name = %q", cfg.Telemetry.ServiceName)
	}
	if cfg.Overpass.RateInterval != time.Second || cfg.Overpass.Burst != 1 {
		t.Errorf("overpass pacing = %v/%d, want 1s/1", cfg.Overpass.RateInterval, cfg.Overpass.Burst)
	}
	if cfg.Overpass.Timeout != 60*time.Second {
		t.Errorf("overpass.timeout = %v, want 60s", cfg.Overpass.Timeout)
	}
	if cfg.Temporal.TaskQueue != "pinpoint-locate" {
		t.Errorf("temporal.task_queue = %q", cfg.Temporal.TaskQueue)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PINPOINT_SERVER_PORT", "9090")
	t.Setenv("PINPOINT_OVERPASS_RATE_INTERVAL", "2500ms")
	t.Setenv("PINPOINT_CACHE_REFERENCE_TTL", "1h")

	cfg, err := Load("pinpoint-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Overpass.RateInterval != 2500*time.Millisecond {
		t.Errorf("overpass.rate_interval = %v", cfg.Overpass.RateInterval)
	}
	if cfg.Cache.ReferenceTTL != time.Hour {
		t.Errorf("cache.reference_ttl = %v", cfg.Cache.ReferenceTTL)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url", "overpass.url", "overpass.burst", "cache.reference_ttl"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s:\n%v", want, err)
		}
	}
}

func TestDSNEscapesCredentials(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "pin", Password: "p@ss/word", DBName: "pinpoint", SSLMode: "disable"}
	want := "postgres://pin:p%40ss%2Fword@db:5432/pinpoint?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestLoadServerTimeoutsAreDurations(t *testing.T) {
	t.Setenv("PINPOINT_SERVER_READ_TIMEOUT", "15s")

	cfg, err := Load("pinpoint-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("server.read_timeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 10*time.Second {
		t.Errorf("server.write_timeout = %v, want 10s", cfg.Server.WriteTimeout)
	}
	if cfg.Database.MaxConns != 20 {
		t.Errorf("database.max_conns = %d, want 20", cfg.Database.MaxConns)
	}
}
