// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/dionysus-app/dionysus/internal/models"
)

func TestConfirmInvoiceGrantsCreditsOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "buyer-1")

	inv, err := db.CreateInvoice(ctx, &models.Invoice{
		UserID:      user.ID,
		AmountCents: 1000,
		Credits:     500,
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if inv.Status != models.InvoiceStatusPending {
		t.Errorf("expected pending invoice, got %s", inv.Status)
	}

	paid, err := db.ConfirmInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid || paid.PaidAt == nil {
		t.Errorf("expected paid invoice with timestamp, got %+v", paid)
	}

	got, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if got.Credits != 650 {
		t.Errorf("expected 650 credits after purchase, got %d", got.Credits)
	}

	// A second confirmation must not double-grant.
	_, err = db.ConfirmInvoice(ctx, inv.ID)
	if !errors.Is(err, ErrInvoiceNotPending) {
		t.Errorf("expected ErrInvoiceNotPending on re-confirm, got %v", err)
	}

	got, err = db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if got.Credits != 650 {
		t.Errorf("credits double-granted: %d", got.Credits)
	}

	transactions, err := db.ListCreditTransactions(ctx, user.ID)
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(transactions) != 1 || transactions[0].Credits != 500 {
		t.Errorf("expected one 500-credit transaction, got %+v", transactions)
	}
}

func TestConfirmMissingInvoice(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	_, err := db.ConfirmInvoice(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListInvoices(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "buyer-2")

	for _, credits := range []int{100, 200} {
		if _, err := db.CreateInvoice(ctx, &models.Invoice{
			UserID:      user.ID,
			AmountCents: credits * 2,
			Credits:     credits,
		}); err != nil {
			t.Fatalf("create invoice failed: %v", err)
		}
	}

	invoices, err := db.ListInvoices(ctx, user.ID)
	if err != nil {
		t.Fatalf("list invoices failed: %v", err)
	}
	if len(invoices) != 2 {
		t.Errorf("expected 2 invoices, got %d", len(invoices))
	}
}
