// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dionysus/config.yaml",
	"/etc/dionysus/config.yml",
}

// ConfigPathEnvVar overrides the config file search entirely.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is the prefix for nested environment variables:
// DIONYSUS_GITHUB_PAGE_SIZE -> github.page_size
const envPrefix = "DIONYSUS_"

// defaultConfig returns a Config with all default values. These are
// applied first, then overridden by config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8466,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/dionysus.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		GitHub: GitHubConfig{
			Token:             "",
			RequestsPerHour:   4500, // headroom under the 5000/hour budget
			PageSize:          100,
			MaxCommitsPerSync: 500,
		},
		AI: AIConfig{
			APIKey:            "",
			Model:             "claude-3-5-haiku-latest",
			MaxTokens:         1024,
			RequestsPerMinute: 50,
			SummaryTimeout:    30 * time.Second,
			ContextCommits:    15,
		},
		Sync: SyncConfig{
			Workers:       4,
			RetryAttempts: 3,
			RetryDelay:    2 * time.Second,
			Interval:      0, // manual trigger only by default
			BackfillBatch: 50,
			CachePath:     "",
		},
		Auth: AuthConfig{
			Mode:             "oidc",
			JWTSecret:        "",
			SessionTimeout:   24 * time.Hour,
			OIDCScopes:       []string{"openid", "profile", "email"},
			SessionStorePath: "/data/sessions",
		},
		Billing: BillingConfig{
			InitialCredits:   150,
			CreditsPerDollar: 50,
		},
		API: APIConfig{
			DefaultPageSize: 15,
			MaxPageSize:     100,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load resolves the full configuration from defaults, an optional YAML
// file, and environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: struct defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for known slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file.
// Returns the first path that exists, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"auth.oidc_scopes",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars come in as strings but the config
// expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Variables with the DIONYSUS_ prefix map by section:
//   - DIONYSUS_SERVER_PORT       -> server.port
//   - DIONYSUS_GITHUB_TOKEN      -> github.token
//   - DIONYSUS_AUTH_JWT_SECRET   -> auth.jwt_secret
//
// A handful of well-known flat names are also honored:
//   - GITHUB_TOKEN     -> github.token
//   - ANTHROPIC_API_KEY -> ai.api_key
//   - HTTP_PORT        -> server.port
//   - LOG_LEVEL        -> logging.level
func envTransformFunc(key string) string {
	if mapped, ok := flatEnvMappings[key]; ok {
		return mapped
	}

	if !strings.HasPrefix(key, envPrefix) {
		return "" // ignore unrelated environment variables
	}

	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	for _, section := range configSections {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}

	return ""
}

// configSections are the top-level koanf sections, used to split
// DIONYSUS_<SECTION>_<FIELD> names.
var configSections = []string{
	"server", "database", "github", "ai", "sync",
	"auth", "billing", "api", "security", "logging",
}

// flatEnvMappings honors conventional environment variable names that
// predate the DIONYSUS_ prefix scheme.
var flatEnvMappings = map[string]string{
	"GITHUB_TOKEN":      "github.token",
	"ANTHROPIC_API_KEY": "ai.api_key",
	"HTTP_PORT":         "server.port",
	"DUCKDB_PATH":       "database.path",
	"LOG_LEVEL":         "logging.level",
	"LOG_FORMAT":        "logging.format",
	"JWT_SECRET":        "auth.jwt_secret",
	"ENVIRONMENT":       "server.environment",
}
