// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package models

import "time"

// Question is a saved Repo AI exchange: a user's free-text question
// about a project, the model's answer, and the files the answer cited.
type Question struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	// FileReferences lists the files the answer drew on.
	FileReferences []FileReference `json:"file_references,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FileReference is one file cited by a Repo AI answer.
type FileReference struct {
	FileName string `json:"file_name"`
	Summary  string `json:"summary,omitempty"`
}
