package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("unexpected environment: %q", cfg.Environment)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Fatalf("unexpected default backend: %q", cfg.DBBackend)
	}
	if cfg.AutosaveDebounce != 650*time.Millisecond {
		t.Fatalf("unexpected debounce default: %v", cfg.AutosaveDebounce)
	}
	if cfg.SavedDisplayHold != 800*time.Millisecond {
		t.Fatalf("unexpected display hold default: %v", cfg.SavedDisplayHold)
	}
}

func TestLoadReadsCriticalEnvKeys(t *testing.T) {
	t.Setenv("CAMPDAY_DB_BACKEND", "postgres")
	t.Setenv("CAMPDAY_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("CAMPDAY_JWT_SIGNING_KEY", "supersecret")
	t.Setenv("CAMPDAY_NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBBackend != DatabasePostgres {
		t.Fatalf("unexpected backend: %q", cfg.DBBackend)
	}
	if cfg.JWTSigningKey != "supersecret" {
		t.Fatalf("unexpected jwt signing key: %q", cfg.JWTSigningKey)
	}
	if cfg.NATSURL == "" {
		t.Fatal("expected NATS URL to be set")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CAMPDAY_DB_BACKEND", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported backend to fail")
	}
}

func TestLoadProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("CAMPDAY_ENV", "production")
	t.Setenv("CAMPDAY_DB_BACKEND", "postgres")
	t.Setenv("CAMPDAY_DB_DSN", "host=db user=camp dbname=camp")
	t.Setenv("CAMPDAY_JWT_SIGNING_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected production config load to fail without signing key")
	}

	t.Setenv("CAMPDAY_JWT_SIGNING_KEY", "supersecret")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production config load with signing key to succeed: %v", err)
	}
}
