package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("SESSION_IDLE_TTL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "9000" {
		t.Fatalf("expected HTTP_PORT fallback 9000, got %s", cfg.HTTPPort)
	}
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("expected memory store, got %s", cfg.StoreDriver)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.CORSAllowed != "" {
		t.Fatalf("expected same-origin default, got %q", cfg.CORSAllowed)
	}
	if cfg.SessionIdleTTL != 12*time.Hour {
		t.Fatalf("expected 12h idle ttl, got %s", cfg.SessionIdleTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadRejectsBadSessionTTL(t *testing.T) {
	t.Setenv("SESSION_IDLE_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for SESSION_IDLE_TTL=soon")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: "redis", AdminUsername: "a", AdminPassword: "b", SessionCookie: "s"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown store driver")
	}
	cfg.StoreDriver = StorePostgres
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing DB settings")
	}
	cfg.DB.Host, cfg.DB.Database = "db", "work_buddy"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.CORSAllowed = "https://desk.example, desk2.example"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for origin without scheme")
	}
	cfg.CORSAllowed = "https://desk.example"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	cfg.AdminPassword = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for empty admin password")
	}
}

func TestDatabaseURLEscapesPassword(t *testing.T) {
	cfg := &Config{}
	cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Database, cfg.DB.SSLMode = "u", "p@ss word", "h", "5432", "d", "disable"
	got := cfg.DatabaseURL()
	if !strings.Contains(got, "p%40ss+word") {
		t.Fatalf("password not escaped: %s", got)
	}
}
