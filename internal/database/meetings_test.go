// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/dionysus-app/dionysus/internal/models"
)

func TestMeetingLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "host-1")
	project := newTestProject(t, db, user.ID, "standups")

	meeting, err := db.CreateMeeting(ctx, &models.Meeting{
		ProjectID: project.ID,
		Name:      "Sprint planning",
		AudioURL:  "https://storage.example/rec.mp3",
	})
	if err != nil {
		t.Fatalf("create meeting failed: %v", err)
	}
	if meeting.Status != models.MeetingStatusProcessing {
		t.Errorf("expected processing status, got %s", meeting.Status)
	}

	processing, err := db.ListProcessingMeetings(ctx, 10)
	if err != nil {
		t.Fatalf("list processing failed: %v", err)
	}
	if len(processing) != 1 {
		t.Fatalf("expected 1 processing meeting, got %d", len(processing))
	}

	issues := []models.MeetingIssue{
		{Start: "00:00", End: "04:30", Gist: "velocity", Headline: "Sprint velocity review", Summary: "Reviewed last sprint."},
		{Start: "04:30", End: "12:00", Gist: "scope", Headline: "Scope cut", Summary: "Dropped two stretch goals."},
	}
	if err := db.CompleteMeeting(ctx, meeting.ID, issues); err != nil {
		t.Fatalf("complete meeting failed: %v", err)
	}

	got, gotIssues, err := db.GetMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("get meeting failed: %v", err)
	}
	if got.Status != models.MeetingStatusCompleted {
		t.Errorf("expected completed status, got %s", got.Status)
	}
	if len(gotIssues) != 2 || got.IssueCount != 2 {
		t.Errorf("expected 2 issues, got %d (count %d)", len(gotIssues), got.IssueCount)
	}

	listed, err := db.ListMeetings(ctx, project.ID)
	if err != nil {
		t.Fatalf("list meetings failed: %v", err)
	}
	if len(listed) != 1 || listed[0].IssueCount != 2 {
		t.Errorf("expected listed meeting with 2 issues, got %+v", listed)
	}

	if err := db.DeleteMeeting(ctx, meeting.ID); err != nil {
		t.Fatalf("delete meeting failed: %v", err)
	}
	if _, _, err := db.GetMeeting(ctx, meeting.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSaveAndListQuestions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "asker-1")
	project := newTestProject(t, db, user.ID, "qa")

	saved, err := db.SaveQuestion(ctx, &models.Question{
		ProjectID: project.ID,
		UserID:    user.ID,
		Question:  "Where is the retry logic?",
		Answer:    "In the sync worker pool.",
		FileReferences: []models.FileReference{
			{FileName: "internal/sync/engine.go", Summary: "worker pool"},
		},
	})
	if err != nil {
		t.Fatalf("save question failed: %v", err)
	}
	if saved.ID == "" {
		t.Error("expected generated question ID")
	}

	questions, err := db.ListQuestions(ctx, project.ID, 10, 0)
	if err != nil {
		t.Fatalf("list questions failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if len(questions[0].FileReferences) != 1 || questions[0].FileReferences[0].FileName != "internal/sync/engine.go" {
		t.Errorf("file references not round-tripped: %+v", questions[0].FileReferences)
	}
}
