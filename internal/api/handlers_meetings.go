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
	"github.com/dionysus-app/dionysus/internal/models"
)

// CreateMeeting handles POST /api/v1/projects/{id}/meetings.
//
// @Summary Register meeting
// @Description Registers an uploaded recording; a background worker extracts issues and completes it
// @Tags meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body CreateMeetingRequest true "Meeting"
// @Success 201 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /api/v1/projects/{id}/meetings [post]
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionMeetings) {
		return
	}

	var req CreateMeetingRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	meeting, err := h.db.CreateMeeting(r.Context(), &models.Meeting{
		ProjectID: projectID,
		Name:      req.Name,
		AudioURL:  req.AudioURL,
		Status:    models.MeetingStatusProcessing,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to create meeting", err)
		return
	}

	respondData(w, http.StatusCreated, meeting)
}

// ListMeetings handles GET /api/v1/projects/{id}/meetings.
//
// @Summary List meetings
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /api/v1/projects/{id}/meetings [get]
func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	projectID := chi.URLParam(r, "id")

	if !h.authorizeProject(w, r, user.ID, projectID, authz.ActionRead) {
		return
	}

	meetings, err := h.db.ListMeetings(r.Context(), projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list meetings", err)
		return
	}

	respondPage(w, meetings, len(meetings), 0, 0)
}

// GetMeeting handles GET /api/v1/meetings/{id}.
//
// @Summary Get meeting
// @Description Returns one meeting with its extracted issues
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Meeting ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/meetings/{id} [get]
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	meetingID := chi.URLParam(r, "id")

	meeting, issues, err := h.db.GetMeeting(r.Context(), meetingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "meeting not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load meeting", err)
		return
	}

	// Membership is checked through the owning project.
	if !h.authorizeProject(w, r, user.ID, meeting.ProjectID, authz.ActionRead) {
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"meeting": meeting,
		"issues":  issues,
	})
}

// DeleteMeeting handles DELETE /api/v1/meetings/{id}.
//
// @Summary Delete meeting
// @Description Removes the meeting and its issues
// @Tags meetings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Meeting ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/v1/meetings/{id} [delete]
func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	meetingID := chi.URLParam(r, "id")

	meeting, _, err := h.db.GetMeeting(r.Context(), meetingID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "meeting not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load meeting", err)
		return
	}

	if !h.authorizeProject(w, r, user.ID, meeting.ProjectID, authz.ActionMeetings) {
		return
	}

	if err := h.db.DeleteMeeting(r.Context(), meetingID); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to delete meeting", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
