// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package models

import "time"

// Invoice statuses.
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusVoid    = "void"
)

// CreditTransaction is one entry in a user's credit purchase ledger.
type CreditTransaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Credits   int       `json:"credits"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice records a simulated checkout. Confirming a pending invoice
// marks it paid, appends a CreditTransaction, and increments the
// user's balance exactly once.
type Invoice struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	AmountCents int        `json:"amount_cents"`
	Credits     int        `json:"credits"`
	Status      string     `json:"status"`
	IssuedAt    time.Time  `json:"issued_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}
