// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package sync implements the commit ingestion pipeline: list a
// project's commits from GitHub, drop hashes already stored, fetch
// and summarize the diffs of the new ones with a bounded worker
// pool, and persist the results. A commit whose summarization fails
// after all retries is stored with the error text as its summary so
// the sync run itself never fails on one bad diff.
package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/dionysus-app/dionysus/internal/cache"
	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/events"
	"github.com/dionysus-app/dionysus/internal/github"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/metrics"
	"github.com/dionysus-app/dionysus/internal/models"
)

// GitHubClient is the subset of the GitHub client the engine uses.
// Satisfied by both github.Client and github.BreakerClient.
type GitHubClient interface {
	ListCommits(ctx context.Context, owner, repo string, maxCommits int) ([]github.CommitInfo, error)
	GetCommitDiff(ctx context.Context, owner, repo, sha string) (*github.CommitDiff, error)
}

// Summarizer produces summary text for one commit diff.
type Summarizer interface {
	SummarizeDiff(ctx context.Context, commitMessage, diff string) (string, error)
}

// ClientFactory builds a GitHub client for a project token. Projects
// without a token share the server-wide client.
type ClientFactory func(token string) GitHubClient

// Engine runs sync and backfill for projects.
type Engine struct {
	db        *database.DB
	clients   ClientFactory
	ai        Summarizer
	diffCache *cache.DiffCache
	bus       *events.Bus
	cfg       *config.Config

	statuses *statusRegistry

	// runMu serializes sync runs per project.
	runMu   stdsync.Mutex
	running map[string]bool
}

// NewEngine creates a sync engine. diffCache and bus may be nil.
func NewEngine(db *database.DB, clients ClientFactory, ai Summarizer, diffCache *cache.DiffCache, bus *events.Bus, cfg *config.Config) *Engine {
	return &Engine{
		db:        db,
		clients:   clients,
		ai:        ai,
		diffCache: diffCache,
		bus:       bus,
		cfg:       cfg,
		statuses:  newStatusRegistry(),
		running:   make(map[string]bool),
	}
}

// Status returns the latest sync status for a project, or nil if the
// project has never been synced in this process.
func (e *Engine) Status(projectID string) *models.SyncStatus {
	return e.statuses.get(projectID)
}

// SyncProject runs one sync for the project. A second call for the
// same project while a run is in flight returns immediately.
func (e *Engine) SyncProject(ctx context.Context, projectID string) (*models.SyncStatus, error) {
	e.runMu.Lock()
	if e.running[projectID] {
		e.runMu.Unlock()
		return e.statuses.get(projectID), fmt.Errorf("sync already running for project %s", projectID)
	}
	e.running[projectID] = true
	e.runMu.Unlock()

	defer func() {
		e.runMu.Lock()
		delete(e.running, projectID)
		e.runMu.Unlock()
	}()

	start := time.Now()
	status := e.statuses.start(projectID)

	discovered, err := e.runSync(ctx, projectID, status)
	metrics.RecordSyncRun(time.Since(start), discovered, err)

	if err != nil {
		e.statuses.finish(projectID, models.SyncStateFailed, err.Error())
	} else {
		e.statuses.finish(projectID, models.SyncStateCompleted, "")
	}

	final := e.statuses.get(projectID)
	e.publishCompleted(projectID, final)
	return final, err
}

func (e *Engine) runSync(ctx context.Context, projectID string, status *models.SyncStatus) (int, error) {
	project, err := e.db.GetProject(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("load project: %w", err)
	}
	if project.Archived() {
		return 0, fmt.Errorf("project %s is archived", projectID)
	}

	owner, repo, err := github.ParseRepoURL(project.RepoURL)
	if err != nil {
		return 0, fmt.Errorf("parse repo url: %w", err)
	}

	client := e.clients(project.GitHubToken)

	listed, err := client.ListCommits(ctx, owner, repo, e.cfg.GitHub.MaxCommitsPerSync)
	if err != nil {
		return 0, fmt.Errorf("list commits: %w", err)
	}
	e.statuses.setListed(projectID, len(listed))

	existing, err := e.db.ListCommitHashes(ctx, projectID)
	if err != nil {
		return 0, fmt.Errorf("list stored hashes: %w", err)
	}

	var fresh []github.CommitInfo
	for _, info := range listed {
		if _, seen := existing[info.Hash]; !seen {
			fresh = append(fresh, info)
		}
	}
	metrics.SyncCommitsDiscovered.Add(float64(len(fresh)))

	logging.Info().
		Str("project_id", projectID).
		Int("listed", len(listed)).
		Int("new", len(fresh)).
		Msg("Sync discovered commits")

	if len(fresh) == 0 {
		return 0, nil
	}

	commits := make([]models.Commit, 0, len(fresh))
	for _, info := range fresh {
		commits = append(commits, models.Commit{
			ProjectID:    projectID,
			Hash:         info.Hash,
			Message:      info.Message,
			AuthorName:   info.AuthorName,
			AuthorAvatar: info.AuthorAvatar,
			AuthoredAt:   info.AuthoredAt,
		})
		e.publishCommit(events.TopicCommitDiscovered, projectID, info.Hash, info.Message, "")
	}

	// Insert before summarizing so a crash mid-run leaves rows the
	// backfill sweep can pick up, and so the unique (project_id, hash)
	// constraint filters races between overlapping runs.
	inserted, err := e.db.InsertCommits(ctx, commits)
	if err != nil {
		return 0, fmt.Errorf("insert commits: %w", err)
	}
	e.statuses.setNew(projectID, inserted)

	e.summarizeBatch(ctx, owner, repo, client, commits)

	return inserted, nil
}

// summarizeBatch runs the worker pool over a batch of stored commits,
// writing each summary (or error text) back to the database.
func (e *Engine) summarizeBatch(ctx context.Context, owner, repo string, client GitHubClient, commits []models.Commit) {
	workers := e.cfg.Sync.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(commits) {
		workers = len(commits)
	}

	jobs := make(chan *models.Commit)
	var wg stdsync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for commit := range jobs {
				e.summarizeCommit(ctx, owner, repo, client, commit)
			}
		}()
	}

	for i := range commits {
		select {
		case jobs <- &commits[i]:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

// summarizeCommit fetches the diff and produces a summary with
// retries. Failures are recorded as the commit's summary text.
func (e *Engine) summarizeCommit(ctx context.Context, owner, repo string, client GitHubClient, commit *models.Commit) {
	summary, err := e.fetchAndSummarize(ctx, owner, repo, client, commit)
	if err != nil {
		metrics.RecordSummary(err)
		e.statuses.recordFailure(commit.ProjectID, fmt.Sprintf("%s: %v", commit.Hash, err))
		e.publishCommit(events.TopicCommitFailed, commit.ProjectID, commit.Hash, commit.Message, err.Error())

		summary = fmt.Sprintf("summarization failed: %v", err)
		logging.Warn().
			Str("project_id", commit.ProjectID).
			Str("hash", commit.Hash).
			Err(err).
			Msg("Storing error text as commit summary")
	} else {
		metrics.RecordSummary(nil)
		e.statuses.recordSummarized(commit.ProjectID)
		e.publishCommit(events.TopicCommitSummarized, commit.ProjectID, commit.Hash, commit.Message, "")
	}

	commit.Summary = summary
	if err := e.db.UpdateCommitSummary(ctx, commit.ID, summary, commit.Additions, commit.Deletions); err != nil {
		logging.Error().
			Str("commit_id", commit.ID).
			Err(err).
			Msg("Failed to store commit summary")
	}
}

func (e *Engine) fetchAndSummarize(ctx context.Context, owner, repo string, client GitHubClient, commit *models.Commit) (string, error) {
	diff, err := e.loadDiff(ctx, owner, repo, client, commit)
	if err != nil {
		return "", fmt.Errorf("fetch diff: %w", err)
	}
	commit.Additions = diff.Additions
	commit.Deletions = diff.Deletions

	var summary string
	err = e.retryWithBackoff(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AI.SummaryTimeout)
		defer cancel()

		var sumErr error
		summary, sumErr = e.ai.SummarizeDiff(attemptCtx, commit.Message, diff.Diff)
		return sumErr
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return summary, nil
}

// loadDiff returns the commit diff, consulting the cache first. Line
// counts ride along and are written back to the commit row.
func (e *Engine) loadDiff(ctx context.Context, owner, repo string, client GitHubClient, commit *models.Commit) (*cache.DiffEntry, error) {
	if e.diffCache != nil {
		if entry, err := e.diffCache.Get(commit.ProjectID, commit.Hash); err == nil {
			return entry, nil
		}
	}

	diff, err := client.GetCommitDiff(ctx, owner, repo, commit.Hash)
	if err != nil {
		return nil, err
	}

	entry := &cache.DiffEntry{
		Diff:      diff.Diff,
		Additions: diff.Additions,
		Deletions: diff.Deletions,
	}
	if e.diffCache != nil {
		if err := e.diffCache.Put(commit.ProjectID, commit.Hash, entry); err != nil {
			logging.Warn().Err(err).Str("hash", commit.Hash).Msg("Failed to cache diff")
		}
	}

	return entry, nil
}

// retryWithBackoff executes fn with exponential backoff. The backoff
// wait is cancelable through ctx.
func (e *Engine) retryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	delay := e.cfg.Sync.RetryDelay

	for attempt := 0; attempt < e.cfg.Sync.RetryAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = fn()
		if err == nil {
			return nil
		}

		if attempt < e.cfg.Sync.RetryAttempts-1 {
			logging.Warn().Err(err).Int("attempt", attempt+1).Int("max_attempts", e.cfg.Sync.RetryAttempts).Dur("delay", delay).Msg("Retry attempt")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("max retry attempts reached: %w", err)
}

func (e *Engine) publishCommit(topic, projectID, hash, message, errText string) {
	if e.bus == nil {
		return
	}
	e.bus.PublishPayload(topic, projectID, events.CommitPayload{
		Hash:    hash,
		Message: firstLine(message),
		Error:   errText,
	})
}

func (e *Engine) publishCompleted(projectID string, status *models.SyncStatus) {
	if e.bus == nil || status == nil {
		return
	}
	e.bus.PublishPayload(events.TopicSyncCompleted, projectID, events.SyncCompletedPayload{
		State:      status.State,
		Listed:     status.Listed,
		New:        status.New,
		Summarized: status.Summarized,
		Failed:     status.Failed,
	})
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
