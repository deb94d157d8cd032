// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dionysus-app/dionysus/internal/authz"
)

// ListCommits handles GET /api/v1/projects/{id}/commits.
//
// @Summary List commits
// @Description Newest-first page of stored commits with their AI summaries
// @Tags commits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param limit query int false "Page size (default 15, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /api/v1/projects/{id}/commits [get]
func (h *Handler) ListCommits(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionRead) {
		return
	}

	req := CommitsRequest{
		Limit:  getIntParam(r, "limit", h.cfg.API.DefaultPageSize),
		Offset: getIntParam(r, "offset", 0),
	}
	if req.Limit > h.cfg.API.MaxPageSize {
		req.Limit = h.cfg.API.MaxPageSize
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	commits, err := h.db.ListCommits(r.Context(), projectID, req.Limit, req.Offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list commits", err)
		return
	}

	total, err := h.db.CountCommits(r.Context(), projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to count commits", err)
		return
	}

	respondPage(w, commits, total, req.Limit, req.Offset)
}
