// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"testing"
	"time"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/models"
)

// newTestDB creates an in-memory database with the schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "256MB",
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return db
}

// newTestUser inserts a user and returns the stored row.
func newTestUser(t *testing.T, db *DB, externalID string) *models.User {
	t.Helper()

	user, err := db.UpsertUser(context.Background(), &models.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
		FirstName:  "Test",
	}, 150)
	if err != nil {
		t.Fatalf("failed to upsert user: %v", err)
	}
	return user
}

// newTestProject inserts a project owned by the given user.
func newTestProject(t *testing.T, db *DB, ownerID, name string) *models.Project {
	t.Helper()

	project, err := db.CreateProject(context.Background(), &models.Project{
		Name:    name,
		RepoURL: "https://github.com/acme/" + name,
	}, ownerID)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func TestNewAndPing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestSchemaIsIdempotent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	// CREATE IF NOT EXISTS must tolerate a second pass.
	if err := db.createTables(); err != nil {
		t.Errorf("second createTables failed: %v", err)
	}
}
