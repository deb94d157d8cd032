// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/dionysus-app/dionysus/internal/models"
)

// SaveQuestion stores a Repo AI exchange for later review.
// File references are serialized as JSON.
func (db *DB) SaveQuestion(ctx context.Context, q *models.Question) (*models.Question, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	saved := *q
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = time.Now().UTC()
	}

	refsJSON, err := json.Marshal(saved.FileReferences)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal file references: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO questions (id, project_id, user_id, question, answer, file_references, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, saved.ID, saved.ProjectID, saved.UserID, saved.Question, saved.Answer,
		string(refsJSON), saved.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert question: %w", err)
	}

	return &saved, nil
}

// ListQuestions returns a project's saved questions newest-first.
func (db *DB) ListQuestions(ctx context.Context, projectID string, limit, offset int) ([]models.Question, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, user_id, question, answer, file_references, created_at
		FROM questions
		WHERE project_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, projectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		var refsJSON string
		if err := rows.Scan(&q.ID, &q.ProjectID, &q.UserID, &q.Question,
			&q.Answer, &refsJSON, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}

		if refsJSON != "" && refsJSON != "null" {
			if err := json.Unmarshal([]byte(refsJSON), &q.FileReferences); err != nil {
				return nil, fmt.Errorf("failed to unmarshal file references: %w", err)
			}
		}

		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}

	return questions, nil
}
