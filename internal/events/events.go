// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package events defines the in-process event bus. Sync workers
// publish progress events; the WebSocket hub subscribes and fans
// them out to connected browsers.
package events

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
const SchemaVersion = 1

// Topic names. One topic per event kind keeps subscribers simple.
const (
	TopicCommitDiscovered = "commit.discovered"
	TopicCommitSummarized = "commit.summarized"
	TopicCommitFailed     = "commit.failed"
	TopicSyncCompleted    = "sync.completed"
	TopicMeetingCompleted = "meeting.completed"
	TopicCreditsPurchased = "credits.purchased"
)

// Event is the canonical envelope published on every topic.
type Event struct {
	SchemaVersion int             `json:"schema_version"`
	EventID       string          `json:"event_id"`
	Topic         string          `json:"topic"`
	ProjectID     string          `json:"project_id,omitempty"`
	UserID        string          `json:"user_id,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// CommitPayload accompanies the commit.* topics.
type CommitPayload struct {
	Hash    string `json:"hash"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SyncCompletedPayload accompanies sync.completed.
type SyncCompletedPayload struct {
	State      string `json:"state"`
	Listed     int    `json:"listed"`
	New        int    `json:"new"`
	Summarized int    `json:"summarized"`
	Failed     int    `json:"failed"`
}

// MeetingPayload accompanies meeting.completed.
type MeetingPayload struct {
	MeetingID string `json:"meeting_id"`
	Name      string `json:"name"`
	Issues    int    `json:"issues"`
}

// CreditsPayload accompanies credits.purchased.
type CreditsPayload struct {
	Credits int `json:"credits"`
	Balance int `json:"balance"`
}

// NewEvent creates an envelope with a unique ID and UTC timestamp.
func NewEvent(topic, projectID string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Topic:         topic,
		ProjectID:     projectID,
		Timestamp:     time.Now().UTC(),
		Payload:       raw,
	}, nil
}
