// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"fmt"
	"time"
)

// tableDefinitions holds the CREATE TABLE statements in dependency order.
var tableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR PRIMARY KEY,
		external_id VARCHAR NOT NULL UNIQUE,
		email VARCHAR NOT NULL,
		first_name VARCHAR DEFAULT '',
		last_name VARCHAR DEFAULT '',
		image_url VARCHAR DEFAULT '',
		credits INTEGER NOT NULL DEFAULT 150,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		repo_url VARCHAR NOT NULL,
		github_token VARCHAR DEFAULT '',
		deleted_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_to_projects (
		user_id VARCHAR NOT NULL,
		project_id VARCHAR NOT NULL,
		role VARCHAR NOT NULL DEFAULT 'member',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_id, project_id)
	)`,

	// The UNIQUE (project_id, hash) constraint is the storage-level
	// guarantee that a commit hash is never inserted twice per project.
	`CREATE TABLE IF NOT EXISTS commits (
		id VARCHAR PRIMARY KEY,
		project_id VARCHAR NOT NULL,
		hash VARCHAR NOT NULL,
		message VARCHAR NOT NULL,
		summary VARCHAR DEFAULT '',
		author_name VARCHAR DEFAULT '',
		author_avatar VARCHAR DEFAULT '',
		authored_at TIMESTAMP NOT NULL,
		additions INTEGER NOT NULL DEFAULT 0,
		deletions INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (project_id, hash)
	)`,

	`CREATE TABLE IF NOT EXISTS questions (
		id VARCHAR PRIMARY KEY,
		project_id VARCHAR NOT NULL,
		user_id VARCHAR NOT NULL,
		question VARCHAR NOT NULL,
		answer VARCHAR NOT NULL,
		file_references VARCHAR DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS meetings (
		id VARCHAR PRIMARY KEY,
		project_id VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		audio_url VARCHAR NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'processing',
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS meeting_issues (
		id VARCHAR PRIMARY KEY,
		meeting_id VARCHAR NOT NULL,
		start_ts VARCHAR DEFAULT '',
		end_ts VARCHAR DEFAULT '',
		gist VARCHAR DEFAULT '',
		headline VARCHAR DEFAULT '',
		summary VARCHAR DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS credit_transactions (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		credits INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS invoices (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		amount_cents INTEGER NOT NULL,
		credits INTEGER NOT NULL,
		status VARCHAR NOT NULL DEFAULT 'pending',
		issued_at TIMESTAMP NOT NULL,
		paid_at TIMESTAMP
	)`,
}

// indexDefinitions holds the CREATE INDEX statements.
var indexDefinitions = []string{
	`CREATE INDEX IF NOT EXISTS idx_commits_project_created ON commits (project_id, authored_at)`,
	`CREATE INDEX IF NOT EXISTS idx_commits_project_summary ON commits (project_id, summary)`,
	`CREATE INDEX IF NOT EXISTS idx_utp_project ON user_to_projects (project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_project ON questions (project_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_project ON meetings (project_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_issues_meeting ON meeting_issues (meeting_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user ON credit_transactions (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_user ON invoices (user_id, issued_at)`,
}

// createTables creates the schema and indexes.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range tableDefinitions {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, stmt := range indexDefinitions {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
