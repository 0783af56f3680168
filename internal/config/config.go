/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	DBBackend     DatabaseBackend
	DBDSN         string
	JWTSigningKey string
	MetricsBind   string // separate listener for /metrics, empty disables it

	// Change feed configuration
	NATSURL string // empty disables the distributed feed

	// Server-side cache configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Editing engine defaults (overridable per session)
	AutosaveDebounce time.Duration
	SavedDisplayHold time.Duration

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("CAMPDAY_ENV", "development"),
		HTTPBind:      getEnv("CAMPDAY_HTTP_BIND", "0.0.0.0"),
		HTTPPort:      getEnvInt("CAMPDAY_HTTP_PORT", 8080),
		DBBackend:     DatabaseBackend(getEnv("CAMPDAY_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:         getEnv("CAMPDAY_DB_DSN", "campday.db"),
		JWTSigningKey: getEnv("CAMPDAY_JWT_SIGNING_KEY", ""),
		MetricsBind:   getEnv("CAMPDAY_METRICS_BIND", "127.0.0.1:9000"),

		NATSURL: getEnv("CAMPDAY_NATS_URL", ""),

		RedisAddr:     getEnv("CAMPDAY_REDIS_ADDR", ""),
		RedisPassword: getEnv("CAMPDAY_REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("CAMPDAY_REDIS_DB", 0),

		AutosaveDebounce: time.Duration(getEnvInt("CAMPDAY_AUTOSAVE_DEBOUNCE_MS", 650)) * time.Millisecond,
		SavedDisplayHold: time.Duration(getEnvInt("CAMPDAY_SAVED_DISPLAY_HOLD_MS", 800)) * time.Millisecond,

		TracingEnabled:    getEnvBool("CAMPDAY_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("CAMPDAY_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("CAMPDAY_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("CAMPDAY_DB_DSN must be provided")
	}

	if strings.EqualFold(cfg.Environment, "production") {
		if cfg.JWTSigningKey == "" {
			return nil, fmt.Errorf("CAMPDAY_JWT_SIGNING_KEY must be provided in production")
		}
		if cfg.DBBackend == DatabaseSQLite && cfg.DBDSN == "campday.db" {
			return nil, fmt.Errorf("CAMPDAY_DB_DSN must be set explicitly in production")
		}
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
