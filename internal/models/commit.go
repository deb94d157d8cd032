// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package models

import "time"

// Commit is one GitHub commit stored for a project, with its AI summary.
// A (ProjectID, Hash) pair is never stored twice.
type Commit struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Hash      string `json:"hash"`
	Message   string `json:"message"`
	// Summary holds the AI-generated bullet text, or an error string
	// when every summarization attempt failed. Empty means not yet
	// summarized (picked up by backfill).
	Summary      string    `json:"summary"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar,omitempty"`
	AuthoredAt   time.Time `json:"authored_at"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summarized reports whether the commit carries a non-empty summary.
func (c *Commit) Summarized() bool {
	return c.Summary != ""
}
