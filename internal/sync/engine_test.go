// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/github"
	"github.com/dionysus-app/dionysus/internal/models"
)

type fakeGitHub struct {
	mu        stdsync.Mutex
	commits   []github.CommitInfo
	diffCalls int
	listErr   error
}

func (f *fakeGitHub) ListCommits(ctx context.Context, owner, repo string, maxCommits int) ([]github.CommitInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.commits, nil
}

func (f *fakeGitHub) GetCommitDiff(ctx context.Context, owner, repo, sha string) (*github.CommitDiff, error) {
	f.mu.Lock()
	f.diffCalls++
	f.mu.Unlock()
	return &github.CommitDiff{Hash: sha, Diff: "diff --git a/f b/f\n+" + sha, Additions: 3, Deletions: 1}, nil
}

type fakeSummarizer struct {
	mu       stdsync.Mutex
	calls    int
	failHash string
}

func (f *fakeSummarizer) SummarizeDiff(ctx context.Context, commitMessage, diff string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.failHash != "" && strings.Contains(diff, f.failHash) {
		return "", errors.New("model unavailable")
	}
	return "- summarized " + commitMessage, nil
}

func testConfig() *config.Config {
	return &config.Config{
		GitHub: config.GitHubConfig{MaxCommitsPerSync: 100},
		AI:     config.AIConfig{SummaryTimeout: time.Second, ContextCommits: 15},
		Sync: config.SyncConfig{
			Workers:       2,
			RetryAttempts: 2,
			RetryDelay:    time.Millisecond,
			BackfillBatch: 10,
		},
	}
}

func newTestEngine(t *testing.T, gh GitHubClient, ai Summarizer) (*Engine, *database.DB, *models.Project) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	user, err := db.UpsertUser(ctx, &models.User{ExternalID: "ext-1", Email: "dev@example.com"}, 150)
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	project, err := db.CreateProject(ctx, &models.Project{
		Name:    "dionysus",
		RepoURL: "https://github.com/dionysus-app/dionysus",
	}, user.ID)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	engine := NewEngine(db, func(string) GitHubClient { return gh }, ai, nil, nil, testConfig())
	return engine, db, project
}

func commitInfo(hash, message string) github.CommitInfo {
	return github.CommitInfo{
		Hash:       hash,
		Message:    message,
		AuthorName: "dev",
		AuthoredAt: time.Now().UTC(),
	}
}

func TestSyncProjectStoresNewCommitsWithSummaries(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{commits: []github.CommitInfo{
		commitInfo("aaa111", "add parser"),
		commitInfo("bbb222", "fix lexer"),
	}}
	engine, db, project := newTestEngine(t, gh, &fakeSummarizer{})

	status, err := engine.SyncProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("SyncProject() error = %v", err)
	}

	if status.State != models.SyncStateCompleted {
		t.Errorf("State = %q, want completed", status.State)
	}
	if status.Listed != 2 || status.New != 2 || status.Summarized != 2 || status.Failed != 0 {
		t.Errorf("status = %+v, want 2 listed, 2 new, 2 summarized", status)
	}

	commits, err := db.ListCommits(context.Background(), project.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("len(commits) = %d, want 2", len(commits))
	}
	for _, c := range commits {
		if !strings.HasPrefix(c.Summary, "- summarized ") {
			t.Errorf("commit %s summary = %q, want generated summary", c.Hash, c.Summary)
		}
	}
}

func TestSyncProjectStoresDiffLineCounts(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{commits: []github.CommitInfo{commitInfo("ccc333", "tighten parser")}}
	engine, db, project := newTestEngine(t, gh, &fakeSummarizer{})

	if _, err := engine.SyncProject(context.Background(), project.ID); err != nil {
		t.Fatalf("SyncProject() error = %v", err)
	}

	commits, err := db.ListCommits(context.Background(), project.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}
	if len(commits) != 1 {
		t.Fatalf("len(commits) = %d, want 1", len(commits))
	}
	if commits[0].Additions != 3 || commits[0].Deletions != 1 {
		t.Errorf("line counts = %d/%d, want 3/1", commits[0].Additions, commits[0].Deletions)
	}
}

func TestSyncProjectSkipsKnownHashes(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{commits: []github.CommitInfo{
		commitInfo("aaa111", "add parser"),
		commitInfo("bbb222", "fix lexer"),
	}}
	ai := &fakeSummarizer{}
	engine, db, project := newTestEngine(t, gh, ai)

	if _, err := engine.SyncProject(context.Background(), project.ID); err != nil {
		t.Fatalf("first SyncProject() error = %v", err)
	}

	// Second run sees the same two commits plus one new one.
	gh.commits = append(gh.commits, commitInfo("ccc333", "add docs"))

	status, err := engine.SyncProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("second SyncProject() error = %v", err)
	}

	if status.Listed != 3 {
		t.Errorf("Listed = %d, want 3", status.Listed)
	}
	if status.New != 1 {
		t.Errorf("New = %d, want 1", status.New)
	}

	count, err := db.CountCommits(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("CountCommits() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountCommits() = %d, want 3", count)
	}
}

func TestSyncProjectStoresErrorTextWhenSummarizationFails(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{commits: []github.CommitInfo{
		commitInfo("aaa111", "add parser"),
		commitInfo("bad999", "broken diff"),
	}}
	ai := &fakeSummarizer{failHash: "bad999"}
	engine, db, project := newTestEngine(t, gh, ai)

	status, err := engine.SyncProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("SyncProject() error = %v", err)
	}

	if status.Summarized != 1 || status.Failed != 1 {
		t.Errorf("status = %+v, want 1 summarized 1 failed", status)
	}
	if status.State != models.SyncStateCompleted {
		t.Errorf("State = %q, want completed; one bad diff must not fail the run", status.State)
	}

	commits, err := db.ListCommits(context.Background(), project.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListCommits() error = %v", err)
	}

	var failed *models.Commit
	for i := range commits {
		if commits[i].Hash == "bad999" {
			failed = &commits[i]
		}
	}
	if failed == nil {
		t.Fatal("failed commit was not stored")
	}
	if !strings.HasPrefix(failed.Summary, "summarization failed:") {
		t.Errorf("Summary = %q, want stored error text", failed.Summary)
	}
}

func TestSyncProjectRetriesBeforeGivingUp(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{commits: []github.CommitInfo{commitInfo("bad999", "flaky")}}
	ai := &fakeSummarizer{failHash: "bad999"}
	engine, _, project := newTestEngine(t, gh, ai)

	if _, err := engine.SyncProject(context.Background(), project.ID); err != nil {
		t.Fatalf("SyncProject() error = %v", err)
	}

	if ai.calls != 2 {
		t.Errorf("summarizer calls = %d, want 2 (retry_attempts)", ai.calls)
	}
}

func TestSyncProjectFailsWhenListingFails(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{listErr: errors.New("rate limited")}
	engine, _, project := newTestEngine(t, gh, &fakeSummarizer{})

	status, err := engine.SyncProject(context.Background(), project.ID)
	if err == nil {
		t.Fatal("expected error")
	}
	if status.State != models.SyncStateFailed {
		t.Errorf("State = %q, want failed", status.State)
	}
}

func TestSyncProjectRejectsArchivedProject(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{}
	engine, db, project := newTestEngine(t, gh, &fakeSummarizer{})

	if err := db.ArchiveProject(context.Background(), project.ID); err != nil {
		t.Fatalf("ArchiveProject() error = %v", err)
	}

	if _, err := engine.SyncProject(context.Background(), project.ID); err == nil {
		t.Fatal("expected error syncing archived project")
	}
}

func TestBackfillSummarizesStoredCommits(t *testing.T) {
	t.Parallel()

	gh := &fakeGitHub{}
	engine, db, project := newTestEngine(t, gh, &fakeSummarizer{})

	// Simulate a crash that left commits stored without summaries.
	commits := []models.Commit{
		{ProjectID: project.ID, Hash: "aaa111", Message: "add parser", AuthorName: "dev", AuthoredAt: time.Now().UTC()},
		{ProjectID: project.ID, Hash: "bbb222", Message: "fix lexer", AuthorName: "dev", AuthoredAt: time.Now().UTC()},
	}
	if _, err := db.InsertCommits(context.Background(), commits); err != nil {
		t.Fatalf("InsertCommits() error = %v", err)
	}

	n, err := engine.Backfill(context.Background())
	if err != nil {
		t.Fatalf("Backfill() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Backfill() = %d, want 2", n)
	}

	remaining, err := db.ListUnsummarizedCommits(context.Background(), project.ID, 10)
	if err != nil {
		t.Fatalf("ListUnsummarizedCommits() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("len(remaining) = %d, want 0", len(remaining))
	}
}

func TestStatusUnknownProjectIsNil(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine(t, &fakeGitHub{}, &fakeSummarizer{})
	if status := engine.Status("nope"); status != nil {
		t.Errorf("Status() = %+v, want nil", status)
	}
}

func TestRetryWithBackoffStopsOnSuccess(t *testing.T) {
	t.Parallel()

	engine, _, _ := newTestEngine(t, &fakeGitHub{}, &fakeSummarizer{})

	calls := 0
	err := engine.retryWithBackoff(context.Background(), func() error {
		calls++
		if calls < 2 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retryWithBackoff() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
