// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dionysus-app/dionysus/internal/authz"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/github"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/models"
)

// authorizeProject enforces project membership for the caller and
// writes the error response on failure.
func (h *Handler) authorizeProject(w http.ResponseWriter, r *http.Request, userID, projectID, action string) bool {
	err := h.authz.Authorize(r.Context(), userID, projectID, action)
	if err == nil {
		return true
	}
	if errors.Is(err, authz.ErrForbidden) {
		// Non-members get the same answer as under-privileged members.
		respondError(w, http.StatusForbidden, codeForbidden, "you do not have access to this project", nil)
	} else {
		respondError(w, http.StatusInternalServerError, codeInternal, "authorization check failed", err)
	}
	return false
}

// CreateProject handles POST /api/v1/projects.
//
// @Summary Create project
// @Description Links a GitHub repository; verifies reachability and charges one credit per repository file
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProjectRequest true "Project"
// @Success 201 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 402 {object} models.APIResponse "Insufficient credits"
// @Failure 502 {object} models.APIResponse "Repository unreachable"
// @Router /api/v1/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	owner, repo, err := github.ParseRepoURL(req.RepoURL)
	if err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "repo_url must be a GitHub repository URL", err)
		return
	}

	client := h.repoClient(req.GitHubToken)
	defaultBranch, err := client.VerifyRepo(r.Context(), owner, repo)
	if err != nil {
		respondError(w, http.StatusBadGateway, codeUpstreamFailed, "repository is not reachable with the given token", err)
		return
	}

	// One credit per file in the repository tree.
	fileCount, err := client.CountRepositoryFiles(r.Context(), owner, repo, defaultBranch)
	if err != nil {
		respondError(w, http.StatusBadGateway, codeUpstreamFailed, "failed to inspect repository", err)
		return
	}
	if err := h.db.DeductCredits(r.Context(), user.ID, fileCount); err != nil {
		if errors.Is(err, database.ErrInsufficientCredits) {
			respondError(w, http.StatusPaymentRequired, codePaymentNeeded, "not enough credits to index this repository", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to charge credits", err)
		return
	}

	project, err := h.db.CreateProject(r.Context(), &models.Project{
		Name:        req.Name,
		RepoURL:     req.RepoURL,
		GitHubToken: req.GitHubToken,
	}, user.ID)
	if err != nil {
		// Refund the charge; the project row never existed.
		if refundErr := h.db.AddCredits(r.Context(), user.ID, fileCount); refundErr != nil {
			logging.Error().Err(refundErr).Str("user_id", user.ID).Int("credits", fileCount).Msg("Failed to refund credits after project create error")
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to create project", err)
		return
	}

	logging.Info().
		Str("project_id", project.ID).
		Str("repo", owner+"/"+repo).
		Int("credits_charged", fileCount).
		Msg("Project created")

	respondData(w, http.StatusCreated, map[string]interface{}{
		"project":         project,
		"credits_charged": fileCount,
	})
}

// ListProjects handles GET /api/v1/projects.
//
// @Summary List projects
// @Description Returns the caller's non-archived projects
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse
// @Router /api/v1/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	projects, err := h.db.ListProjectsForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list projects", err)
		return
	}

	respondPage(w, projects, len(projects), 0, 0)
}

// GetProject handles GET /api/v1/projects/{id}.
//
// @Summary Get project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/projects/{id} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionRead) {
		return
	}

	project, err := h.db.GetProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "project not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load project", err)
		return
	}

	respondData(w, http.StatusOK, project)
}

// ArchiveProject handles DELETE /api/v1/projects/{id}.
//
// @Summary Archive project
// @Description Soft-archives the project; data stays but sync and listing exclude it
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/projects/{id} [delete]
func (h *Handler) ArchiveProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionArchive) {
		return
	}

	if err := h.db.ArchiveProject(r.Context(), projectID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "project not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to archive project", err)
		return
	}

	logging.Info().Str("project_id", projectID).Str("user_id", user.ID).Msg("Project archived")
	respondData(w, http.StatusOK, map[string]interface{}{"archived": true})
}

// AddMember handles POST /api/v1/projects/{id}/members.
//
// @Summary Add project member
// @Description Grants another user a role on the project; owner only
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body AddMemberRequest true "Membership"
// @Success 201 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse "Unknown user"
// @Router /api/v1/projects/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionMembers) {
		return
	}

	var req AddMemberRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}

	if _, err := h.db.GetUserByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "user not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to look up user", err)
		return
	}

	// Adding an existing member is a no-op at the storage layer.
	if err := h.db.AddProjectMember(r.Context(), req.UserID, projectID, role); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to add member", err)
		return
	}

	respondData(w, http.StatusCreated, map[string]interface{}{
		"project_id": projectID,
		"user_id":    req.UserID,
		"role":       role,
	})
}
