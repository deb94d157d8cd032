// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package models

import "time"

// Sync run states.
const (
	SyncStateRunning   = "running"
	SyncStateCompleted = "completed"
	SyncStateFailed    = "failed"
)

// SyncStatus describes the most recent sync run for a project.
type SyncStatus struct {
	ProjectID   string     `json:"project_id"`
	State       string     `json:"state"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Listed is how many commits GitHub returned; New is how many
	// survived the hash set-difference; Summarized and Failed
	// partition New once the pipeline finishes.
	Listed     int      `json:"listed"`
	New        int      `json:"new"`
	Summarized int      `json:"summarized"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}
