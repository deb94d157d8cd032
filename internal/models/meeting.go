// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package models

import "time"

// Meeting statuses.
const (
	MeetingStatusProcessing = "processing"
	MeetingStatusCompleted  = "completed"
)

// Meeting is an uploaded meeting recording attached to a project.
// It starts in processing and is marked completed once issues are
// attached by the background worker.
type Meeting struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	AudioURL   string    `json:"audio_url"`
	Status     string    `json:"status"`
	IssueCount int       `json:"issue_count,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MeetingIssue is one discussion point extracted from a meeting.
type MeetingIssue struct {
	ID        string    `json:"id"`
	MeetingID string    `json:"meeting_id"`
	Start     string    `json:"start"` // timestamp within the recording
	End       string    `json:"end"`
	Gist      string    `json:"gist"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
