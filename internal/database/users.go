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

// UpsertUser inserts or refreshes a user row mirroring the identity
// provider's profile, keyed by the provider subject. The local credit
// balance is preserved on update. Returns the stored row.
func (db *DB) UpsertUser(ctx context.Context, user *models.User, initialCredits int) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	id := user.ID
	if id == "" {
		id = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, external_id, email, first_name, last_name, image_url, credits, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`

	_, err := db.conn.ExecContext(ctx, query,
		id, user.ExternalID, user.Email, user.FirstName, user.LastName,
		user.ImageURL, initialCredits, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return db.GetUserByExternalID(ctx, user.ExternalID)
}

// GetUserByID retrieves a user by local ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return db.getUser(ctx, "id", id)
}

// GetUserByExternalID retrieves a user by identity provider subject.
func (db *DB) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return db.getUser(ctx, "external_id", externalID)
}

func (db *DB) getUser(ctx context.Context, column, value string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, external_id, email, first_name, last_name, image_url, credits, created_at, updated_at
		FROM users
		WHERE %s = ?
	`, column)

	row := db.conn.QueryRowContext(ctx, query, value)

	var u models.User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.FirstName, &u.LastName,
		&u.ImageURL, &u.Credits, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	return &u, nil
}

// AddCredits increments a user's credit balance.
func (db *DB) AddCredits(ctx context.Context, userID string, credits int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`,
		credits, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}

	return requireAffected(res, ErrNotFound)
}

// DeductCredits decrements a user's balance, refusing to go negative.
// Returns ErrInsufficientCredits when the balance does not cover the cost.
func (db *DB) DeductCredits(ctx context.Context, userID string, credits int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET credits = credits - ?, updated_at = ? WHERE id = ? AND credits >= ?`,
		credits, time.Now().UTC(), userID, credits)
	if err != nil {
		return fmt.Errorf("failed to deduct credits: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing user from a short balance.
		if _, lookupErr := db.GetUserByID(ctx, userID); lookupErr != nil {
			return lookupErr
		}
		return ErrInsufficientCredits
	}

	return nil
}

// ChargeCredits deducts a usage charge. When the balance does not cover
// the full amount, whatever remains is drained instead; the balance
// never goes negative and a short balance is not an error.
func (db *DB) ChargeCredits(ctx context.Context, userID string, credits int) error {
	err := db.DeductCredits(ctx, userID, credits)
	if !errors.Is(err, ErrInsufficientCredits) {
		return err
	}

	user, err := db.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Credits <= 0 {
		return nil
	}
	return db.DeductCredits(ctx, userID, user.Credits)
}

// requireAffected maps a zero-row update to the given sentinel error.
func requireAffected(res sql.Result, onZero error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return onZero
	}
	return nil
}
