// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dionysus-app/dionysus/internal/authz"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/models"
)

// syncRunTimeout bounds one background sync run end to end.
const syncRunTimeout = 30 * time.Minute

// TriggerSync handles POST /api/v1/projects/{id}/sync.
//
// @Summary Trigger commit sync
// @Description Starts the commit pipeline in the background; 409 when a run is already in flight
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 202 {object} models.APIResponse
// @Failure 402 {object} models.APIResponse "No credits left"
// @Failure 403 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse "Sync already running"
// @Router /api/v1/projects/{id}/sync [post]
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionSync) {
		return
	}

	// Each summarized commit costs a credit, so refuse to start broke.
	fresh, err := h.db.GetUserByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load user", err)
		return
	}
	if fresh.Credits <= 0 {
		respondError(w, http.StatusPaymentRequired, codePaymentNeeded, "no credits left; purchase more to sync", nil)
		return
	}

	if status := h.engine.Status(projectID); status != nil && status.State == models.SyncStateRunning {
		respondError(w, http.StatusConflict, codeConflict, "a sync is already running for this project", nil)
		return
	}

	go h.runSyncAndCharge(projectID, user.ID)

	respondData(w, http.StatusAccepted, map[string]interface{}{
		"project_id": projectID,
		"state":      models.SyncStateRunning,
	})
}

// runSyncAndCharge executes one sync run detached from the request and
// charges the triggering user one credit per summarized commit.
func (h *Handler) runSyncAndCharge(projectID, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), syncRunTimeout)
	defer cancel()

	status, err := h.engine.SyncProject(ctx, projectID)
	if err != nil {
		logging.Error().Err(err).Str("project_id", projectID).Msg("Background sync failed")
	}
	if status == nil || status.Summarized == 0 {
		return
	}

	if err := h.db.ChargeCredits(ctx, userID, status.Summarized); err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("Failed to charge sync credits")
	}
}

// SyncStatus handles GET /api/v1/projects/{id}/sync/status.
//
// @Summary Sync status
// @Description Returns the state and counters of the project's most recent sync run
// @Tags sync
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "No run recorded"
// @Router /api/v1/projects/{id}/sync/status [get]
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionRead) {
		return
	}

	status := h.engine.Status(projectID)
	if status == nil {
		respondError(w, http.StatusNotFound, codeNotFound, "no sync has run for this project yet", nil)
		return
	}

	respondData(w, http.StatusOK, status)
}
