// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package main is the entry point for the Dionysus server.
//
// Dionysus links GitHub repositories to projects, syncs their commit
// history, summarizes each diff with a language model, and lets project
// members chat with an assistant grounded in those summaries. Meetings
// are processed in the background into timestamped issues, and all AI
// work is metered through a per-user credit balance.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config.yaml via Koanf v2
//  2. Database: DuckDB with the Dionysus schema
//  3. Diff cache: BadgerDB cache for commit diffs (optional)
//  4. Event bus: in-process Watermill pub/sub
//  5. Clients: circuit-breaker wrapped GitHub and Anthropic clients
//  6. Sync engine, scheduler, and meeting worker
//  7. Authentication (OIDC, basic, or none) and Casbin authorization
//  8. WebSocket hub and HTTP API
//  9. Supervisor tree: suture v4 manages all long-running services
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (DIONYSUS_* and well-known flat names)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// For OIDC authentication (default):
//   - DIONYSUS_AUTH_OIDC_ISSUER, DIONYSUS_AUTH_OIDC_CLIENT_ID,
//     DIONYSUS_AUTH_OIDC_CLIENT_SECRET, DIONYSUS_AUTH_OIDC_REDIRECT_URL
//   - JWT_SECRET: 32+ character secret for session token signing
//
// For GitHub and AI access:
//   - GITHUB_TOKEN: default personal access token for repository sync
//   - ANTHROPIC_API_KEY: key for diff summarization and Q&A
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Stops the sync scheduler and meeting worker
//   - Closes the event bus, diff cache, and database
//
// # Example Usage
//
// Development without an identity provider:
//
//	export DIONYSUS_AUTH_MODE=none
//	export GITHUB_TOKEN=ghp_your-token
//	export ANTHROPIC_API_KEY=sk-ant-your-key
//	./dionysus
//
// Production with OIDC:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export DIONYSUS_AUTH_OIDC_ISSUER=https://auth.example.com
//	export DIONYSUS_AUTH_OIDC_CLIENT_ID=dionysus
//	export DIONYSUS_AUTH_OIDC_CLIENT_SECRET=...
//	export DIONYSUS_AUTH_OIDC_REDIRECT_URL=https://dionysus.example.com/auth/callback
//	./dionysus
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/dionysus-app/dionysus/docs" // Import generated swagger docs
	"github.com/dionysus-app/dionysus/internal/ai"
	"github.com/dionysus-app/dionysus/internal/api"
	"github.com/dionysus-app/dionysus/internal/auth"
	"github.com/dionysus-app/dionysus/internal/authz"
	"github.com/dionysus-app/dionysus/internal/cache"
	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/events"
	"github.com/dionysus-app/dionysus/internal/github"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/meetings"
	"github.com/dionysus-app/dionysus/internal/supervisor"
	"github.com/dionysus-app/dionysus/internal/supervisor/services"
	syncpkg "github.com/dionysus-app/dionysus/internal/sync"
	ws "github.com/dionysus-app/dionysus/internal/websocket"
)

// eventBusBuffer is the per-topic buffer of the in-process event bus.
const eventBusBuffer = 256

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Auth.Mode).
		Str("model", cfg.AI.Model).
		Msg("Starting Dionysus")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	// Diff cache keeps already-fetched commit diffs out of the GitHub
	// rate budget across restarts. An empty path selects an in-memory
	// cache that lives only for this process.
	diffCache, err := cache.Open(cfg.Sync.CachePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open diff cache")
	}
	defer func() {
		if err := diffCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing diff cache")
		}
	}()
	if cfg.Sync.CachePath == "" {
		logging.Info().Msg("Diff cache running in-memory (SYNC_CACHE_PATH not set)")
	} else {
		logging.Info().Str("path", cfg.Sync.CachePath).Msg("Diff cache opened")
	}

	bus := events.NewBus(eventBusBuffer)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// Both factories hand out circuit-breaker wrapped GitHub clients.
	// Projects without their own token share the server-wide token.
	syncClients := func(token string) syncpkg.GitHubClient {
		return github.NewBreakerClient(&cfg.GitHub, token)
	}
	repoClients := func(token string) api.RepoClient {
		return github.NewBreakerClient(&cfg.GitHub, token)
	}
	aiClient := ai.NewBreakerClient(&cfg.AI)
	if cfg.AI.APIKey == "" {
		logging.Warn().Msg("AI API key not configured - summarization and Q&A will fail")
	}

	engine := syncpkg.NewEngine(db, syncClients, aiClient, diffCache, bus, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authSvc, err := auth.NewService(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}

	authzSvc, err := authz.NewService(db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	if cfg.Auth.Mode == "none" {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Every request runs as the built-in development user!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}

	wsHub := ws.NewHub()

	handler := api.NewHandler(db, cfg, authSvc, authzSvc, engine, aiClient, repoClients, wsHub, bus)

	router := api.NewRouter(handler, api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Security.CORSOrigins,
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSAllowCredentials: true,
		CORSMaxAge:           86400,
		RateLimitRequests:    cfg.Security.RateLimitReqs,
		RateLimitWindow:      cfg.Security.RateLimitWindow,
		RateLimitDisabled:    cfg.Security.RateLimitDisabled,
	}))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor events log through the zerolog-backed slog bridge
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Workers layer
	if cfg.Sync.Interval > 0 {
		tree.AddWorkerService(syncpkg.NewScheduler(engine, cfg.Sync.Interval))
		logging.Info().Dur("interval", cfg.Sync.Interval).Msg("Periodic sync scheduler added to supervisor tree")
	} else {
		logging.Info().Msg("Periodic sync disabled (SYNC_INTERVAL=0) - manual trigger only")
	}
	tree.AddWorkerService(meetings.NewWorker(db, bus, 0))

	// Messaging layer
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewEventBridgeService(wsHub, bus))

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
