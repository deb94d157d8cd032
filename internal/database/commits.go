// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dionysus-app/dionysus/internal/models"
)

// ListCommitHashes returns the set of stored commit hashes for a
// project. The sync pipeline diffs listed commits against this set so
// a hash is never inserted twice per project.
func (db *DB) ListCommitHashes(ctx context.Context, projectID string) (map[string]struct{}, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT hash FROM commits WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commit hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan commit hash: %w", err)
		}
		hashes[hash] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commit hashes: %w", err)
	}

	return hashes, nil
}

// InsertCommits bulk-inserts commits in one transaction. Rows that
// collide with an existing (project_id, hash) pair are skipped rather
// than failing the batch. Returns the number of rows actually inserted.
func (db *DB) InsertCommits(ctx context.Context, commits []models.Commit) (int, error) {
	if len(commits) == 0 {
		return 0, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO commits (id, project_id, hash, message, summary, author_name, author_avatar, authored_at, additions, deletions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, hash) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare commit insert: %w", err)
	}
	defer closeQuietly(stmt)

	now := time.Now().UTC()
	inserted := 0
	for i := range commits {
		c := &commits[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}

		res, err := stmt.ExecContext(ctx,
			c.ID, c.ProjectID, c.Hash, c.Message, c.Summary,
			c.AuthorName, c.AuthorAvatar, c.AuthoredAt,
			c.Additions, c.Deletions, c.CreatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert commit %s: %w", c.Hash, err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit commit batch: %w", err)
	}

	return inserted, nil
}

// ListCommits returns a project's commits newest-first.
func (db *DB) ListCommits(ctx context.Context, projectID string, limit, offset int) ([]models.Commit, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, hash, message, summary, author_name, author_avatar, authored_at, additions, deletions, created_at
		FROM commits
		WHERE project_id = ?
		ORDER BY authored_at DESC
		LIMIT ? OFFSET ?
	`, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer rows.Close()

	commits := []models.Commit{}
	for rows.Next() {
		var c models.Commit
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Hash, &c.Message, &c.Summary,
			&c.AuthorName, &c.AuthorAvatar, &c.AuthoredAt,
			&c.Additions, &c.Deletions, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commits: %w", err)
	}

	return commits, nil
}

// CountCommits returns the number of stored commits for a project.
func (db *DB) CountCommits(ctx context.Context, projectID string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM commits WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}

	return count, nil
}

// UpdateCommitSummary replaces a commit's summary text and the line
// counts learned from its diff. Rows are inserted before diffs are
// fetched, so this is where additions and deletions land.
func (db *DB) UpdateCommitSummary(ctx context.Context, commitID, summary string, additions, deletions int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE commits SET summary = ?, additions = ?, deletions = ? WHERE id = ?`,
		summary, additions, deletions, commitID)
	if err != nil {
		return fmt.Errorf("failed to update commit summary: %w", err)
	}

	return requireAffected(res, ErrNotFound)
}

// ListUnsummarizedCommits returns up to limit commits with an empty
// summary, oldest first. Feeds the backfill sweep.
func (db *DB) ListUnsummarizedCommits(ctx context.Context, projectID string, limit int) ([]models.Commit, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, hash, message, summary, author_name, author_avatar, authored_at, additions, deletions, created_at
		FROM commits
		WHERE project_id = ? AND summary = ''
		ORDER BY authored_at
		LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsummarized commits: %w", err)
	}
	defer rows.Close()

	commits := []models.Commit{}
	for rows.Next() {
		var c models.Commit
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Hash, &c.Message, &c.Summary,
			&c.AuthorName, &c.AuthorAvatar, &c.AuthoredAt,
			&c.Additions, &c.Deletions, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commits: %w", err)
	}

	return commits, nil
}
