// Urbanytics - Real Estate Market Analytics BFF
// Copyright 2026 mendezluchoo
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mendezluchoo/urbanytics

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Database.URL = "postgres://localhost:5432/urbanytics"
	return cfg
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config with database URL should validate: %v", err)
	}
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := defaultConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error for missing database URL")
	}
	if !strings.Contains(err.Error(), "database.url") {
		t.Errorf("Expected database.url in error, got: %v", err)
	}
}

func TestValidatePortRange(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"valid port", 3001, false},
		{"port zero", 0, true},
		{"port too high", 70000, true},
		{"max port", 65535, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() with port %d: err = %v, wantErr = %v", tt.port, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDashboardTTLBound(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.AnalyticsTTL = 5 * time.Minute
	cfg.Cache.DashboardTTL = 15 * time.Minute

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error when dashboard TTL exceeds analytics TTL")
	}
	if !strings.Contains(err.Error(), "dashboard_ttl") {
		t.Errorf("Expected dashboard_ttl in error, got: %v", err)
	}

	cfg.Cache.DashboardTTL = 5 * time.Minute
	if err := cfg.Validate(); err != nil {
		t.Errorf("Equal TTLs should validate: %v", err)
	}
}

func TestValidateMLSettings(t *testing.T) {
	cfg := validConfig()
	cfg.ML.URL = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "ml.url") {
		t.Errorf("Expected ml.url validation error, got: %v", err)
	}

	cfg = validConfig()
	cfg.ML.Timeout = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "ml.timeout") {
		t.Errorf("Expected ml.timeout validation error, got: %v", err)
	}
}

func TestValidatePageSizeBounds(t *testing.T) {
	cfg := validConfig()
	cfg.API.DefaultPageSize = 50
	cfg.API.MaxPageSize = 20

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error when max page size < default page size")
	}
}

func TestValidateLoggingFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for unknown logging format")
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/urbanytics")
	t.Setenv("HTTP_PORT", "4000")
	t.Setenv("CACHE_FILTERS_TTL", "30m")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() failed: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Expected port 4000 from env, got %d", cfg.Server.Port)
	}
	if cfg.Database.URL != "postgres://db:5432/urbanytics" {
		t.Errorf("Expected database URL from env, got %s", cfg.Database.URL)
	}
	if cfg.Cache.FiltersTTL != 30*time.Minute {
		t.Errorf("Expected 30m filters TTL, got %s", cfg.Cache.FiltersTTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example.com" {
		t.Errorf("Expected two trimmed CORS origins, got %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanfMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("Expected load failure without database URL")
	}
}

func TestEnvTransformFuncSkipsUnknown(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("Unknown env var should map to empty path, got %q", got)
	}
	if got := envTransformFunc("HTTP_PORT"); got != "server.port" {
		t.Errorf("HTTP_PORT should map to server.port, got %q", got)
	}
	if got := envTransformFunc("ML_SERVICE_URL"); got != "ml.url" {
		t.Errorf("ML_SERVICE_URL should map to ml.url, got %q", got)
	}
}
