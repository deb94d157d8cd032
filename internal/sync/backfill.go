// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package sync

import (
	"context"
	"fmt"

	"github.com/dionysus-app/dionysus/internal/github"
	"github.com/dionysus-app/dionysus/internal/logging"
)

// Backfill sweeps every active project for commits that were stored
// without a summary, usually because the process died mid-run, and
// summarizes them. Returns the number of commits it summarized or
// marked failed.
func (e *Engine) Backfill(ctx context.Context) (int, error) {
	projects, err := e.db.ListActiveProjects(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}

	total := 0
	for i := range projects {
		project := &projects[i]

		n, err := e.backfillProject(ctx, project.ID, project.RepoURL, project.GitHubToken)
		if err != nil {
			logging.Warn().Str("project_id", project.ID).Err(err).Msg("Backfill failed for project")
			continue
		}
		total += n

		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}

	if total > 0 {
		logging.Info().Int("commits", total).Msg("Backfill summarized stored commits")
	}
	return total, nil
}

func (e *Engine) backfillProject(ctx context.Context, projectID, repoURL, token string) (int, error) {
	commits, err := e.db.ListUnsummarizedCommits(ctx, projectID, e.cfg.Sync.BackfillBatch)
	if err != nil {
		return 0, fmt.Errorf("list unsummarized: %w", err)
	}
	if len(commits) == 0 {
		return 0, nil
	}

	owner, repo, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return 0, fmt.Errorf("parse repo url: %w", err)
	}

	e.summarizeBatch(ctx, owner, repo, e.clients(token), commits)
	return len(commits), nil
}
