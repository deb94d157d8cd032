// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package models

import "time"

// Project is a tracked GitHub repository plus its associated commits,
// questions, and meetings, scoped to its member users.
type Project struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	RepoURL string `json:"repo_url"`
	// GitHubToken is a per-project personal access token for private
	// repositories. Never serialized in API responses.
	GitHubToken string     `json:"-"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"` // soft archive
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Archived reports whether the project has been soft-archived.
func (p *Project) Archived() bool {
	return p.DeletedAt != nil
}
