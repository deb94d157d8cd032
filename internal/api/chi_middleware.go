// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// ChiMiddlewareConfig holds configuration for the Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSAllowCredentials: true,
		CORSMaxAge:           86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: false,
	}
}

// ChiMiddleware provides Chi-compatible middleware factories built on
// the go-chi ecosystem (cors, httprate).
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		AllowCredentials: config.CORSAllowCredentials,
		MaxAge:           config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the go-chi/cors handler. It must be mounted globally so
// OPTIONS preflight requests reach it.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP rate limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limit(RateLimitConfig{
		Requests: m.config.RateLimitRequests,
		Window:   m.config.RateLimitWindow,
	})
}

// RateLimitConfig defines rate limit parameters for a route group.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Endpoint-specific limits, tuned per endpoint characteristics.
var (
	// RateLimitLogin is very strict to slow credential stuffing.
	RateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// RateLimitAuth covers the remaining auth endpoints.
	RateLimitAuth = RateLimitConfig{Requests: 20, Window: time.Minute}

	// RateLimitSync bounds manual sync triggers; each run fans out
	// GitHub and model calls.
	RateLimitSync = RateLimitConfig{Requests: 10, Window: time.Minute}

	// RateLimitAsk bounds Repo AI questions; each consumes a model call.
	RateLimitAsk = RateLimitConfig{Requests: 20, Window: time.Minute}

	// RateLimitWrite is moderate limiting for write operations.
	RateLimitWrite = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitHealth is permissive for monitoring probes.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// limit builds a per-IP httprate limiter, or a no-op when disabled.
func (m *ChiMiddleware) limit(config RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.LimitByIP(config.Requests, config.Window)
}

// RateLimitCustom returns a rate limiter with explicit parameters.
func (m *ChiMiddleware) RateLimitCustom(config RateLimitConfig) func(http.Handler) http.Handler {
	return m.limit(config)
}

// RateLimitLoginEndpoint returns the strict limiter for credential endpoints.
func (m *ChiMiddleware) RateLimitLoginEndpoint() func(http.Handler) http.Handler {
	return m.limit(RateLimitLogin)
}

// RateLimitAuthEndpoints returns the limiter for the auth route group.
func (m *ChiMiddleware) RateLimitAuthEndpoints() func(http.Handler) http.Handler {
	return m.limit(RateLimitAuth)
}

// RateLimitSyncEndpoint returns the limiter for sync triggers.
func (m *ChiMiddleware) RateLimitSyncEndpoint() func(http.Handler) http.Handler {
	return m.limit(RateLimitSync)
}

// RateLimitAskEndpoint returns the limiter for Repo AI questions.
func (m *ChiMiddleware) RateLimitAskEndpoint() func(http.Handler) http.Handler {
	return m.limit(RateLimitAsk)
}

// RateLimitHealthEndpoints returns the permissive limiter for health probes.
func (m *ChiMiddleware) RateLimitHealthEndpoints() func(http.Handler) http.Handler {
	return m.limit(RateLimitHealth)
}
