package config

import (
	"errors"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("ASSISTANT_RATE_LIMIT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.AssistantRateLimit != 60 {
		t.Errorf("expected default rate limit 60, got %d", cfg.AssistantRateLimit)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected default CORS origins: %v", cfg.CORSOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("ASSISTANT_RATE_LIMIT", "not-a-number")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("SEED_DATA", "yes")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.AssistantRateLimit != 60 {
		t.Errorf("expected malformed int to fall back to 60, got %d", cfg.AssistantRateLimit)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
	if !cfg.SeedData {
		t.Error("expected SEED_DATA=yes to enable seeding")
	}
	if !cfg.IsProduction() {
		t.Error("expected production environment")
	}
}

func TestValidate_IdentitySecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("IDENTITY_JWT_SECRET", "")
	cfg := Load()
	if cfg.IdentityJWTSecret == "" {
		t.Error("expected a development fallback secret")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("development fallback should validate, got %v", err)
	}

	t.Setenv("ENVIRONMENT", "production")
	cfg = Load()
	if cfg.IdentityJWTSecret != "" {
		t.Errorf("production must not get a fallback secret, got %q", cfg.IdentityJWTSecret)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingIdentitySecret) {
		t.Errorf("expected ErrMissingIdentitySecret, got %v", err)
	}

	t.Setenv("IDENTITY_JWT_SECRET", "dev-identity-secret")
	if err := Load().Validate(); !errors.Is(err, ErrMissingIdentitySecret) {
		t.Errorf("development secret in production: expected ErrMissingIdentitySecret, got %v", err)
	}

	t.Setenv("IDENTITY_JWT_SECRET", "s3cret")
	if err := Load().Validate(); err != nil {
		t.Errorf("expected configured secret to validate, got %v", err)
	}
}
