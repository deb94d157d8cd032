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

// CreateMeeting registers an uploaded meeting in processing state.
func (db *DB) CreateMeeting(ctx context.Context, m *models.Meeting) (*models.Meeting, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	saved := *m
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	if saved.Status == "" {
		saved.Status = models.MeetingStatusProcessing
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO meetings (id, project_id, name, audio_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, saved.ID, saved.ProjectID, saved.Name, saved.AudioURL, saved.Status, saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert meeting: %w", err)
	}

	return &saved, nil
}

// GetMeeting retrieves one meeting with its issues.
func (db *DB) GetMeeting(ctx context.Context, id string) (*models.Meeting, []models.MeetingIssue, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_id, name, audio_url, status, created_at
		FROM meetings
		WHERE id = ?
	`, id)

	var m models.Meeting
	err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.AudioURL, &m.Status, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan meeting: %w", err)
	}

	issues, err := db.listMeetingIssues(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	m.IssueCount = len(issues)

	return &m, issues, nil
}

// ListMeetings returns a project's meetings newest-first with issue counts.
func (db *DB) ListMeetings(ctx context.Context, projectID string) ([]models.Meeting, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.id, m.project_id, m.name, m.audio_url, m.status, m.created_at,
			(SELECT COUNT(*) FROM meeting_issues i WHERE i.meeting_id = m.id) AS issue_count
		FROM meetings m
		WHERE m.project_id = ?
		ORDER BY m.created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer rows.Close()

	meetings := []models.Meeting{}
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.AudioURL,
			&m.Status, &m.CreatedAt, &m.IssueCount); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meetings: %w", err)
	}

	return meetings, nil
}

// CompleteMeeting attaches extracted issues and marks the meeting
// completed in one transaction.
func (db *DB) CompleteMeeting(ctx context.Context, meetingID string, issues []models.MeetingIssue) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for i := range issues {
		issue := &issues[i]
		if issue.ID == "" {
			issue.ID = uuid.New().String()
		}
		issue.MeetingID = meetingID

		_, err := tx.ExecContext(ctx, `
			INSERT INTO meeting_issues (id, meeting_id, start_ts, end_ts, gist, headline, summary, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, issue.ID, issue.MeetingID, issue.Start, issue.End,
			issue.Gist, issue.Headline, issue.Summary, now)
		if err != nil {
			return fmt.Errorf("failed to insert meeting issue: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE meetings SET status = ? WHERE id = ?`,
		models.MeetingStatusCompleted, meetingID)
	if err != nil {
		return fmt.Errorf("failed to complete meeting: %w", err)
	}
	if err := requireAffected(res, ErrNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit meeting completion: %w", err)
	}

	return nil
}

// DeleteMeeting removes a meeting and its issues.
func (db *DB) DeleteMeeting(ctx context.Context, id string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM meeting_issues WHERE meeting_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete meeting issues: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM meetings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	if err := requireAffected(res, ErrNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit meeting deletion: %w", err)
	}

	return nil
}

// ListProcessingMeetings returns meetings still awaiting the
// processing worker, oldest first.
func (db *DB) ListProcessingMeetings(ctx context.Context, limit int) ([]models.Meeting, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, name, audio_url, status, created_at
		FROM meetings
		WHERE status = ?
		ORDER BY created_at
		LIMIT ?
	`, models.MeetingStatusProcessing, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query processing meetings: %w", err)
	}
	defer rows.Close()

	meetings := []models.Meeting{}
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.AudioURL,
			&m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meetings: %w", err)
	}

	return meetings, nil
}

func (db *DB) listMeetingIssues(ctx context.Context, meetingID string) ([]models.MeetingIssue, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, meeting_id, start_ts, end_ts, gist, headline, summary, created_at
		FROM meeting_issues
		WHERE meeting_id = ?
		ORDER BY created_at
	`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query meeting issues: %w", err)
	}
	defer rows.Close()

	issues := []models.MeetingIssue{}
	for rows.Next() {
		var issue models.MeetingIssue
		if err := rows.Scan(&issue.ID, &issue.MeetingID, &issue.Start, &issue.End,
			&issue.Gist, &issue.Headline, &issue.Summary, &issue.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting issue: %w", err)
		}
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating meeting issues: %w", err)
	}

	return issues, nil
}
