// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"github.com/dionysus-app/dionysus/internal/models"
)

// LoginRequest is the body for POST /api/v1/auth/token (basic mode).
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// CreateProjectRequest is the body for POST /api/v1/projects.
// GitHubToken is optional and only needed for private repositories.
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	RepoURL     string `json:"repo_url" validate:"required,url"`
	GitHubToken string `json:"github_token" validate:"omitempty,min=4"`
}

// AddMemberRequest is the body for POST /api/v1/projects/{id}/members.
type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Role   string `json:"role" validate:"omitempty,oneof=owner member"`
}

// CommitsRequest holds the validated paging parameters for the
// commits list endpoint.
type CommitsRequest struct {
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0,max=1000000"`
}

// AskQuestionRequest is the body for POST /api/v1/projects/{id}/questions/ask.
type AskQuestionRequest struct {
	Question string `json:"question" validate:"required,min=3,max=4000"`
}

// SaveQuestionRequest is the body for POST /api/v1/projects/{id}/questions.
type SaveQuestionRequest struct {
	Question       string                 `json:"question" validate:"required,min=1,max=4000"`
	Answer         string                 `json:"answer" validate:"required,min=1"`
	FileReferences []models.FileReference `json:"file_references"`
}

// CreateMeetingRequest is the body for POST /api/v1/projects/{id}/meetings.
type CreateMeetingRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	AudioURL string `json:"audio_url" validate:"required,url"`
}

// CheckoutRequest is the body for POST /api/v1/billing/checkout.
type CheckoutRequest struct {
	Credits int `json:"credits" validate:"required,min=1,max=100000"`
}

// ConfirmCheckoutRequest is the body for POST /api/v1/billing/checkout/confirm.
type ConfirmCheckoutRequest struct {
	InvoiceID string `json:"invoice_id" validate:"required,uuid"`
}
