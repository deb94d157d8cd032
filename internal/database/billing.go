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

// CreateInvoice records a pending invoice for a simulated checkout.
func (db *DB) CreateInvoice(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	saved := *inv
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	if saved.Status == "" {
		saved.Status = models.InvoiceStatusPending
	}
	if saved.IssuedAt.IsZero() {
		saved.IssuedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO invoices (id, user_id, amount_cents, credits, status, issued_at, paid_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
	`, saved.ID, saved.UserID, saved.AmountCents, saved.Credits, saved.Status, saved.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	return &saved, nil
}

// GetInvoice retrieves an invoice by ID.
func (db *DB) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, amount_cents, credits, status, issued_at, paid_at
		FROM invoices
		WHERE id = ?
	`, id)

	return scanInvoice(row)
}

// ConfirmInvoice marks a pending invoice paid, appends the credit
// transaction, and increments the user's balance. Confirming an
// already-paid invoice returns ErrInvoiceNotPending, which makes the
// operation idempotent from the caller's point of view.
func (db *DB) ConfirmInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inv, err := scanInvoice(tx.QueryRowContext(ctx, `
		SELECT id, user_id, amount_cents, credits, status, issued_at, paid_at
		FROM invoices
		WHERE id = ?
	`, invoiceID))
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvoiceStatusPending {
		return nil, ErrInvoiceNotPending
	}

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx,
		`UPDATE invoices SET status = ?, paid_at = ? WHERE id = ? AND status = ?`,
		models.InvoiceStatusPaid, now, invoiceID, models.InvoiceStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	if err := requireAffected(res, ErrInvoiceNotPending); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, credits, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.New().String(), inv.UserID, inv.Credits, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record credit transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`,
		inv.Credits, now, inv.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to grant credits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invoice confirmation: %w", err)
	}

	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = &now
	return inv, nil
}

// ListInvoices returns a user's invoices newest-first.
func (db *DB) ListInvoices(ctx context.Context, userID string) ([]models.Invoice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, credits, status, issued_at, paid_at
		FROM invoices
		WHERE user_id = ?
		ORDER BY issued_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// ListCreditTransactions returns a user's credit purchase ledger
// newest-first.
func (db *DB) ListCreditTransactions(ctx context.Context, userID string) ([]models.CreditTransaction, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, credits, created_at
		FROM credit_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.CreditTransaction{}
	for rows.Next() {
		var t models.CreditTransaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Credits, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credit transaction: %w", err)
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit transactions: %w", err)
	}

	return transactions, nil
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var paidAt sql.NullTime

	err := row.Scan(&inv.ID, &inv.UserID, &inv.AmountCents, &inv.Credits,
		&inv.Status, &inv.IssuedAt, &paidAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}

	return &inv, nil
}
