// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dionysus-app/dionysus/internal/models"
)

func testCommit(projectID, hash string, authoredAt time.Time) models.Commit {
	return models.Commit{
		ProjectID:  projectID,
		Hash:       hash,
		Message:    "commit " + hash,
		AuthorName: "dev",
		AuthoredAt: authoredAt,
	}
}

func TestInsertCommitsSkipsDuplicateHashes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "committer-1")
	project := newTestProject(t, db, user.ID, "dedupe")

	now := time.Now().UTC()
	batch := []models.Commit{
		testCommit(project.ID, "aaa111", now.Add(-2*time.Hour)),
		testCommit(project.ID, "bbb222", now.Add(-time.Hour)),
	}

	inserted, err := db.InsertCommits(ctx, batch)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("expected 2 inserted, got %d", inserted)
	}

	// Re-inserting one known hash plus one new commit must only add
	// the new one: a (project, hash) pair is never stored twice.
	retry := []models.Commit{
		testCommit(project.ID, "aaa111", now.Add(-2*time.Hour)),
		testCommit(project.ID, "ccc333", now),
	}
	inserted, err = db.InsertCommits(ctx, retry)
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if inserted != 1 {
		t.Errorf("expected 1 inserted on retry, got %d", inserted)
	}

	count, err := db.CountCommits(ctx, project.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 commits stored, got %d", count)
	}
}

func TestSameHashAllowedAcrossProjects(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "committer-2")
	first := newTestProject(t, db, user.ID, "fork-a")
	second := newTestProject(t, db, user.ID, "fork-b")

	now := time.Now().UTC()
	for _, p := range []*models.Project{first, second} {
		inserted, err := db.InsertCommits(ctx, []models.Commit{testCommit(p.ID, "shared999", now)})
		if err != nil {
			t.Fatalf("insert failed for %s: %v", p.Name, err)
		}
		if inserted != 1 {
			t.Errorf("expected insert in project %s, got %d rows", p.Name, inserted)
		}
	}
}

func TestListCommitHashes(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "committer-3")
	project := newTestProject(t, db, user.ID, "hashes")

	now := time.Now().UTC()
	_, err := db.InsertCommits(ctx, []models.Commit{
		testCommit(project.ID, "h1", now),
		testCommit(project.ID, "h2", now),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	hashes, err := db.ListCommitHashes(ctx, project.ID)
	if err != nil {
		t.Fatalf("list hashes failed: %v", err)
	}
	if len(hashes) != 2 {
		t.Fatalf("expected 2 hashes, got %d", len(hashes))
	}
	if _, ok := hashes["h1"]; !ok {
		t.Error("expected h1 in hash set")
	}
}

func TestListCommitsNewestFirstWithPaging(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "committer-4")
	project := newTestProject(t, db, user.ID, "paging")

	base := time.Now().UTC().Add(-10 * time.Hour)
	batch := make([]models.Commit, 5)
	for i := range batch {
		batch[i] = testCommit(project.ID, fmt.Sprintf("page%d", i), base.Add(time.Duration(i)*time.Hour))
	}
	if _, err := db.InsertCommits(ctx, batch); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	page, err := db.ListCommits(ctx, project.ID, 2, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(page))
	}
	if page[0].Hash != "page4" || page[1].Hash != "page3" {
		t.Errorf("expected newest-first ordering, got %s, %s", page[0].Hash, page[1].Hash)
	}

	next, err := db.ListCommits(ctx, project.ID, 2, 2)
	if err != nil {
		t.Fatalf("list offset failed: %v", err)
	}
	if len(next) != 2 || next[0].Hash != "page2" {
		t.Errorf("unexpected second page: %+v", next)
	}
}

func TestUnsummarizedBackfillFlow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "committer-5")
	project := newTestProject(t, db, user.ID, "backfill")

	now := time.Now().UTC()
	summarized := testCommit(project.ID, "done1", now.Add(-time.Hour))
	summarized.Summary = "- did things"
	pending := testCommit(project.ID, "todo1", now)

	if _, err := db.InsertCommits(ctx, []models.Commit{summarized, pending}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	missing, err := db.ListUnsummarizedCommits(ctx, project.ID, 10)
	if err != nil {
		t.Fatalf("list unsummarized failed: %v", err)
	}
	if len(missing) != 1 || missing[0].Hash != "todo1" {
		t.Fatalf("expected only todo1 unsummarized, got %+v", missing)
	}

	if err := db.UpdateCommitSummary(ctx, missing[0].ID, "- caught up", 12, 4); err != nil {
		t.Fatalf("update summary failed: %v", err)
	}

	missing, err = db.ListUnsummarizedCommits(ctx, project.ID, 10)
	if err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("expected no unsummarized commits, got %+v", missing)
	}

	stored, err := db.ListCommits(ctx, project.ID, 10, 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, c := range stored {
		if c.Hash != "todo1" {
			continue
		}
		if c.Additions != 12 || c.Deletions != 4 {
			t.Errorf("expected line counts 12/4, got %d/%d", c.Additions, c.Deletions)
		}
	}
}
