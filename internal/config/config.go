// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package config provides layered configuration for Dionysus.
//
// Configuration is resolved in three layers, each overriding the last:
//
//  1. Struct defaults (defaultConfig)
//  2. YAML config file (config.yaml, searched in standard locations)
//  3. Environment variables (DIONYSUS_* and well-known flat names)
//
// Secrets (GitHub tokens, JWT secret, AI API key) are only ever read from
// the file or environment layers and are never logged.
package config

import (
	"time"
)

// Config is the root configuration for the Dionysus server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	GitHub   GitHubConfig   `koanf:"github"`
	AI       AIConfig       `koanf:"ai"`
	Sync     SyncConfig     `koanf:"sync"`
	Auth     AuthConfig     `koanf:"auth"`
	Billing  BillingConfig  `koanf:"billing"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB file path. Use ":memory:" for tests.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads sets DuckDB's thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// GitHubConfig holds settings for the GitHub REST client.
type GitHubConfig struct {
	// Token is the default personal access token used when a project
	// does not carry its own.
	Token string `koanf:"token"`
	// RequestsPerHour bounds the client-side rate limiter. The
	// authenticated REST budget is 5000/hour; leave headroom.
	RequestsPerHour int `koanf:"requests_per_hour"`
	// PageSize is the commits-per-page for list calls (max 100).
	PageSize int `koanf:"page_size"`
	// MaxCommitsPerSync bounds how many new commits one sync run ingests.
	MaxCommitsPerSync int `koanf:"max_commits_per_sync"`
}

// AIConfig holds settings for the language-model client.
type AIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
	// MaxTokens caps completion length per call.
	MaxTokens int `koanf:"max_tokens"`
	// RequestsPerMinute bounds the client-side rate limiter.
	RequestsPerMinute int `koanf:"requests_per_minute"`
	// SummaryTimeout is the per-attempt timeout for one summarize call.
	SummaryTimeout time.Duration `koanf:"summary_timeout"`
	// ContextCommits is how many recent commit summaries feed a chat answer.
	ContextCommits int `koanf:"context_commits"`
}

// SyncConfig holds settings for the commit sync pipeline.
type SyncConfig struct {
	// Workers is the size of the summarization worker pool.
	Workers int `koanf:"workers"`
	// RetryAttempts is the number of summarize attempts per commit.
	RetryAttempts int `koanf:"retry_attempts"`
	// RetryDelay is the base delay for exponential backoff between attempts.
	RetryDelay time.Duration `koanf:"retry_delay"`
	// Interval enables periodic sync of every project when > 0.
	Interval time.Duration `koanf:"interval"`
	// BackfillBatch bounds how many unsummarized commits a backfill
	// sweep re-enqueues per run.
	BackfillBatch int `koanf:"backfill_batch"`
	// CachePath is the badger directory for the diff cache.
	// Empty selects an in-memory cache that lives only for the process.
	CachePath string `koanf:"cache_path"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Mode selects the authentication mode: oidc, basic, or none.
	// "none" is for development only and logs a prominent warning.
	Mode string `koanf:"mode"`

	// JWTSecret signs session tokens (HS256). Required unless mode=none.
	JWTSecret string `koanf:"jwt_secret"`
	// SessionTimeout is the session JWT lifetime.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// OIDC identity provider (mode=oidc).
	OIDCIssuer       string   `koanf:"oidc_issuer"`
	OIDCClientID     string   `koanf:"oidc_client_id"`
	OIDCClientSecret string   `koanf:"oidc_client_secret"`
	OIDCRedirectURL  string   `koanf:"oidc_redirect_url"`
	OIDCScopes       []string `koanf:"oidc_scopes"`

	// Basic credential fallback (mode=basic).
	AdminEmail        string `koanf:"admin_email"`
	AdminPasswordHash string `koanf:"admin_password_hash"` // bcrypt

	// SessionStorePath is the badger directory for sessions and OIDC
	// state. Empty selects an in-memory store (sessions lost on restart).
	SessionStorePath string `koanf:"session_store_path"`
}

// BillingConfig holds credit metering settings.
type BillingConfig struct {
	// InitialCredits is granted to every new user row.
	InitialCredits int `koanf:"initial_credits"`
	// CreditsPerDollar sets checkout pricing.
	CreditsPerDollar int `koanf:"credits_per_dollar"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds CORS and rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
