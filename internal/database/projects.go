// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dionysus-app/dionysus/internal/models"
)

// CreateProject inserts a project and its owner membership in one
// transaction.
func (db *DB) CreateProject(ctx context.Context, project *models.Project, ownerID string) (*models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	p := *project
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, repo_url, github_token, deleted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		p.ID, p.Name, p.RepoURL, p.GitHubToken, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_to_projects (user_id, project_id, role, created_at) VALUES (?, ?, ?, ?)`,
		ownerID, p.ID, models.RoleOwner, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit project: %w", err)
	}

	return &p, nil
}

// GetProject retrieves a project by ID, archived or not.
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT id, name, repo_url, github_token, deleted_at, created_at, updated_at
		FROM projects
		WHERE id = ?
	`, id)

	return scanProject(row)
}

// ListProjectsForUser returns the caller's non-archived projects,
// newest first.
func (db *DB) ListProjectsForUser(ctx context.Context, userID string) ([]models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.id, p.name, p.repo_url, p.github_token, p.deleted_at, p.created_at, p.updated_at
		FROM projects p
		JOIN user_to_projects utp ON utp.project_id = p.id
		WHERE utp.user_id = ? AND p.deleted_at IS NULL
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// ListActiveProjects returns every non-archived project. Used by the
// periodic sync scheduler.
func (db *DB) ListActiveProjects(ctx context.Context) ([]models.Project, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, repo_url, github_token, deleted_at, created_at, updated_at
		FROM projects
		WHERE deleted_at IS NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// ArchiveProject soft-deletes a project by setting deleted_at.
func (db *DB) ArchiveProject(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE projects SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}

	return requireAffected(res, ErrNotFound)
}

// AddProjectMember links a user to a project. Adding an existing member
// is a no-op.
func (db *DB) AddProjectMember(ctx context.Context, userID, projectID, role string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_to_projects (user_id, project_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, project_id) DO NOTHING
	`, userID, projectID, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add project member: %w", err)
	}

	return nil
}

// GetProjectOwner returns the user ID of the project's owner, or
// ErrNotFound when the project has none.
func (db *DB) GetProjectOwner(ctx context.Context, projectID string) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var userID string
	err := db.conn.QueryRowContext(ctx, `
		SELECT user_id FROM user_to_projects
		WHERE project_id = ? AND role = ?
		ORDER BY created_at LIMIT 1
	`, projectID, models.RoleOwner).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query project owner: %w", err)
	}

	return userID, nil
}

// GetMemberRole returns the caller's role in a project, or ErrNotFound
// when the user is not a member.
func (db *DB) GetMemberRole(ctx context.Context, userID, projectID string) (string, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var role string
	err := db.conn.QueryRowContext(ctx,
		`SELECT role FROM user_to_projects WHERE user_id = ? AND project_id = ?`,
		userID, projectID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query member role: %w", err)
	}

	return role, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var deletedAt sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &p.RepoURL, &p.GitHubToken,
		&deletedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}

	return &p, nil
}
