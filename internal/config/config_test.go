package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.BreakerOpenTimeout != 30*time.Second {
		t.Fatalf("expected 30s breaker timeout, got %v", cfg.BreakerOpenTimeout)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC location")
	}
}

func TestLoad_JWTRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_MODE", "jwt")
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without AUTH_JWT_SECRET")
	}
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	t.Setenv("AUTH_MODE", "dev")
	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Fatalf("expected timezone error")
	}
}

func TestBrokers_SplitsCSV(t *testing.T) {
	c := &Config{KafkaBrokers: " a:9092, ,b:9092"}
	got := c.Brokers()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %#v", got)
	}
}
