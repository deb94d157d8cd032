// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dionysus-app/dionysus/internal/ai"
	"github.com/dionysus-app/dionysus/internal/authz"
	"github.com/dionysus-app/dionysus/internal/models"
)

// AskQuestion handles POST /api/v1/projects/{id}/questions/ask.
//
// @Summary Ask Repo AI
// @Description Answers a free-text question from the most recent commit summaries
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body AskQuestionRequest true "Question"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 502 {object} models.APIResponse "Model unavailable"
// @Router /api/v1/projects/{id}/questions/ask [post]
func (h *Handler) AskQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionAsk) {
		return
	}

	var req AskQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	commits, err := h.db.ListCommits(r.Context(), projectID, h.cfg.AI.ContextCommits, 0)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load commit context", err)
		return
	}

	commitContext := make([]ai.CommitContext, 0, len(commits))
	refs := make([]models.FileReference, 0, len(commits))
	for _, c := range commits {
		if !c.Summarized() {
			continue
		}
		commitContext = append(commitContext, ai.CommitContext{
			Hash:       c.Hash,
			Message:    c.Message,
			Summary:    c.Summary,
			AuthoredAt: c.AuthoredAt,
		})
		refs = append(refs, models.FileReference{
			FileName: shortHash(c.Hash),
			Summary:  firstLine(c.Message),
		})
	}

	answer, err := h.ai.AnswerQuestion(r.Context(), req.Question, commitContext)
	if err != nil {
		respondError(w, http.StatusBadGateway, codeUpstreamFailed, "the model could not answer right now", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"question":        req.Question,
		"answer":          answer,
		"file_references": refs,
	})
}

// SaveQuestion handles POST /api/v1/projects/{id}/questions.
//
// @Summary Save question
// @Description Stores a Repo AI exchange for later review
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body SaveQuestionRequest true "Exchange"
// @Success 201 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /api/v1/projects/{id}/questions [post]
func (h *Handler) SaveQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionAsk) {
		return
	}

	var req SaveQuestionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	saved, err := h.db.SaveQuestion(r.Context(), &models.Question{
		ProjectID:      projectID,
		UserID:         user.ID,
		Question:       req.Question,
		Answer:         req.Answer,
		FileReferences: req.FileReferences,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to save question", err)
		return
	}

	respondData(w, http.StatusCreated, saved)
}

// ListQuestions handles GET /api/v1/projects/{id}/questions.
//
// @Summary List saved questions
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /api/v1/projects/{id}/questions [get]
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionRead) {
		return
	}

	limit := getIntParam(r, "limit", h.cfg.API.DefaultPageSize)
	if limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.MaxPageSize
	}
	offset := getIntParam(r, "offset", 0)

	questions, err := h.db.ListQuestions(r.Context(), projectID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list questions", err)
		return
	}

	respondPage(w, questions, len(questions), limit, offset)
}

// shortHash abbreviates a commit hash for display.
func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// firstLine returns the subject line of a commit message.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
