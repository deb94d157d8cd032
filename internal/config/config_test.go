// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package config

import (
	"testing"
	"time"
)

func TestDefaultConfigIsValidWithAuthNone(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	// Defaults ship with oidc mode but no issuer; development installs
	// switch to none until a provider is configured.
	cfg.Auth.Mode = "none"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with auth none should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"page size too large", func(c *Config) { c.GitHub.PageSize = 101 }},
		{"zero workers", func(c *Config) { c.Sync.Workers = 0 }},
		{"oidc without issuer", func(c *Config) { c.Auth.Mode = "oidc" }},
		{"basic without credentials", func(c *Config) { c.Auth.Mode = "basic" }},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "magic" }},
		{"auth none in production", func(c *Config) {
			c.Auth.Mode = "none"
			c.Server.Environment = "production"
		}},
		{"default page size above max", func(c *Config) {
			c.API.DefaultPageSize = 500
			c.API.MaxPageSize = 100
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			cfg.Auth.Mode = "none"
			tt.mutate(cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"DIONYSUS_SERVER_PORT", "server.port"},
		{"DIONYSUS_GITHUB_MAX_COMMITS_PER_SYNC", "github.max_commits_per_sync"},
		{"DIONYSUS_AUTH_JWT_SECRET", "auth.jwt_secret"},
		{"DIONYSUS_AI_CONTEXT_COMMITS", "ai.context_commits"},
		{"GITHUB_TOKEN", "github.token"},
		{"ANTHROPIC_API_KEY", "ai.api_key"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
		{"DIONYSUS_UNKNOWN_THING", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadAppliesEnvironment(t *testing.T) {
	t.Setenv("DIONYSUS_SERVER_PORT", "9100")
	t.Setenv("DIONYSUS_AUTH_MODE", "none")
	t.Setenv("DIONYSUS_SECURITY_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DIONYSUS_SYNC_RETRY_DELAY", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Sync.RetryDelay != 5*time.Second {
		t.Errorf("expected retry delay 5s, got %v", cfg.Sync.RetryDelay)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example" {
		t.Errorf("expected 2 CORS origins, got %v", cfg.Security.CORSOrigins)
	}
}
