// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values that would cause the
// server to fail later rather than at startup.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		errs = append(errs, fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment))
	}

	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	if c.GitHub.PageSize < 1 || c.GitHub.PageSize > 100 {
		errs = append(errs, fmt.Errorf("github.page_size must be 1-100, got %d", c.GitHub.PageSize))
	}
	if c.GitHub.MaxCommitsPerSync < 1 {
		errs = append(errs, errors.New("github.max_commits_per_sync must be positive"))
	}

	if c.AI.ContextCommits < 1 {
		errs = append(errs, errors.New("ai.context_commits must be positive"))
	}
	if c.AI.SummaryTimeout <= 0 {
		errs = append(errs, errors.New("ai.summary_timeout must be positive"))
	}

	if c.Sync.Workers < 1 {
		errs = append(errs, errors.New("sync.workers must be positive"))
	}
	if c.Sync.RetryAttempts < 1 {
		errs = append(errs, errors.New("sync.retry_attempts must be positive"))
	}

	switch c.Auth.Mode {
	case "oidc":
		if c.Auth.OIDCIssuer == "" || c.Auth.OIDCClientID == "" {
			errs = append(errs, errors.New("auth mode oidc requires auth.oidc_issuer and auth.oidc_client_id"))
		}
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth.jwt_secret is required with auth mode oidc"))
		}
	case "basic":
		if c.Auth.AdminEmail == "" || c.Auth.AdminPasswordHash == "" {
			errs = append(errs, errors.New("auth mode basic requires auth.admin_email and auth.admin_password_hash"))
		}
		if c.Auth.JWTSecret == "" {
			errs = append(errs, errors.New("auth.jwt_secret is required with auth mode basic"))
		}
	case "none":
		if c.Server.Environment == "production" {
			errs = append(errs, errors.New("auth mode none is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be oidc, basic, or none, got %q", c.Auth.Mode))
	}

	if c.Billing.CreditsPerDollar < 1 {
		errs = append(errs, errors.New("billing.credits_per_dollar must be positive"))
	}

	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		errs = append(errs, fmt.Errorf("api.default_page_size %d must be 1-%d", c.API.DefaultPageSize, c.API.MaxPageSize))
	}

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}
