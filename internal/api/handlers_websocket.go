// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dionysus-app/dionysus/internal/logging"
	ws "github.com/dionysus-app/dionysus/internal/websocket"
)

// getUpgrader builds the WebSocket upgrader with origin checking bound
// to the configured CORS origins.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin validates the Origin header against the CORS
// allow list. Requests without an Origin header are rejected; browsers
// always send one, so its absence means a non-browser client that can
// authenticate via the Authorization header instead.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	if h.cfg == nil {
		return true
	}

	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket origin rejected")
	return false
}

// Events handles GET /api/v1/events.
//
// @Summary Event stream
// @Description Upgrades to WebSocket and pushes sync, meeting, and billing events
// @Tags ops
// @Security BearerAuth
// @Success 101
// @Failure 400 {object} models.APIResponse
// @Router /api/v1/events [get]
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		respondError(w, http.StatusServiceUnavailable, codeUpstreamFailed, "event stream is not available", nil)
		return
	}

	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	projects, err := h.db.ListProjectsForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load projects", err)
		return
	}
	projectIDs := make([]string, 0, len(projects))
	for _, project := range projects {
		projectIDs = append(projectIDs, project.ID)
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn, user.ID, projectIDs)
	h.wsHub.Register <- client
	client.Start()
}
