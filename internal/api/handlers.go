// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dionysus-app/dionysus/internal/ai"
	"github.com/dionysus-app/dionysus/internal/auth"
	"github.com/dionysus-app/dionysus/internal/authz"
	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/events"
	"github.com/dionysus-app/dionysus/internal/github"
	syncpkg "github.com/dionysus-app/dionysus/internal/sync"
	ws "github.com/dionysus-app/dionysus/internal/websocket"
)

// RepoClient is the slice of the GitHub client the handlers need for
// project creation. Satisfied by github.Client and github.BreakerClient.
type RepoClient interface {
	VerifyRepo(ctx context.Context, owner, repo string) (string, error)
	CountRepositoryFiles(ctx context.Context, owner, repo, ref string) (int, error)
}

// RepoClientFactory builds a RepoClient for a per-project token.
type RepoClientFactory func(token string) RepoClient

// Answerer is the slice of the AI client the question handlers need.
// Satisfied by ai.Client and ai.BreakerClient.
type Answerer interface {
	AnswerQuestion(ctx context.Context, question string, commits []ai.CommitContext) (string, error)
}

// Handler processes HTTP requests for the Dionysus API.
type Handler struct {
	db        *database.DB
	cfg       *config.Config
	auth      *auth.Service
	authz     *authz.Service
	engine    *syncpkg.Engine
	ai        Answerer
	repos     RepoClientFactory
	wsHub     *ws.Hub
	bus       *events.Bus
	startTime time.Time
}

// NewHandler creates the API handler with its dependencies. engine,
// ai, repos, wsHub, and bus may be nil in tests that do not exercise them.
func NewHandler(db *database.DB, cfg *config.Config, authSvc *auth.Service, authzSvc *authz.Service, engine *syncpkg.Engine, answerer Answerer, repos RepoClientFactory, wsHub *ws.Hub, bus *events.Bus) *Handler {
	return &Handler{
		db:        db,
		cfg:       cfg,
		auth:      authSvc,
		authz:     authzSvc,
		engine:    engine,
		ai:        answerer,
		repos:     repos,
		wsHub:     wsHub,
		bus:       bus,
		startTime: time.Now(),
	}
}

// repoClient resolves the GitHub client for a project token, falling
// back to the plain client when no factory was injected.
func (h *Handler) repoClient(token string) RepoClient {
	if h.repos != nil {
		return h.repos(token)
	}
	return github.NewClient(&h.cfg.GitHub, token)
}

// Health handles GET /health.
//
// @Summary Liveness probe
// @Description Reports process uptime; always 200 while the process serves requests
// @Tags ops
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready handles GET /ready.
//
// @Summary Readiness probe
// @Description Pings the database; 503 until storage answers
// @Tags ops
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /ready [get]
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, codeUpstreamFailed, "database not ready", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"status": "ready"})
}
