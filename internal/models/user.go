// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package models

import "time"

// User mirrors a profile from the identity provider plus the local
// credit balance. The provider is the source of truth for profile
// fields; rows are upserted on authenticated requests.
type User struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"` // identity provider subject
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Credits    int       `json:"credits"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Project roles for UserToProject memberships.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// UserToProject links a user to a project with a role.
// The (UserID, ProjectID) pair is unique.
type UserToProject struct {
	UserID    string    `json:"user_id"`
	ProjectID string    `json:"project_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
