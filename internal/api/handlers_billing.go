// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/events"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/metrics"
	"github.com/dionysus-app/dionysus/internal/models"
)

// Billing handles GET /api/v1/billing.
//
// @Summary Billing overview
// @Description Returns the caller's credit balance and purchase ledger
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse
// @Router /api/v1/billing [get]
func (h *Handler) Billing(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	fresh, err := h.db.GetUserByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load user", err)
		return
	}

	transactions, err := h.db.ListCreditTransactions(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list transactions", err)
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"credits":      fresh.Credits,
		"transactions": transactions,
	})
}

// Checkout handles POST /api/v1/billing/checkout.
//
// @Summary Start checkout
// @Description Creates a pending invoice for a credit purchase and returns a simulated checkout URL
// @Tags billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CheckoutRequest true "Purchase"
// @Success 201 {object} models.APIResponse
// @Router /api/v1/billing/checkout [post]
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	perDollar := h.cfg.Billing.CreditsPerDollar
	if perDollar <= 0 {
		perDollar = 50
	}
	// Round up so partial dollars are never free.
	amountCents := (req.Credits*100 + perDollar - 1) / perDollar

	invoice, err := h.db.CreateInvoice(r.Context(), &models.Invoice{
		UserID:      user.ID,
		AmountCents: amountCents,
		Credits:     req.Credits,
		Status:      models.InvoiceStatusPending,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to create invoice", err)
		return
	}

	// Simulated checkout; a real payment provider would host this URL.
	respondData(w, http.StatusCreated, map[string]interface{}{
		"invoice":      invoice,
		"checkout_url": fmt.Sprintf("https://checkout.dionysus.local/pay/%s", invoice.ID),
	})
}

// ConfirmCheckout handles POST /api/v1/billing/checkout/confirm.
//
// @Summary Confirm checkout
// @Description Marks the invoice paid and grants the credits; confirming twice fails cleanly
// @Tags billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ConfirmCheckoutRequest true "Invoice"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse "Invoice not pending"
// @Router /api/v1/billing/checkout/confirm [post]
func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ConfirmCheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	// Confirm only the caller's own invoices.
	invoice, err := h.db.GetInvoice(r.Context(), req.InvoiceID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, codeNotFound, "invoice not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load invoice", err)
		return
	}
	if invoice.UserID != user.ID {
		respondError(w, http.StatusNotFound, codeNotFound, "invoice not found", nil)
		return
	}

	confirmed, err := h.db.ConfirmInvoice(r.Context(), req.InvoiceID)
	if err != nil {
		if errors.Is(err, database.ErrInvoiceNotPending) {
			respondError(w, http.StatusConflict, codeConflict, "invoice is not pending", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to confirm invoice", err)
		return
	}

	metrics.CreditsPurchased.Add(float64(confirmed.Credits))

	fresh, err := h.db.GetUserByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load user", err)
		return
	}
	h.publishCreditsPurchased(user.ID, confirmed, fresh.Credits)

	respondData(w, http.StatusOK, map[string]interface{}{
		"invoice": confirmed,
		"credits": fresh.Credits,
	})
}

// publishCreditsPurchased fans the purchase out to WebSocket clients.
func (h *Handler) publishCreditsPurchased(userID string, invoice *models.Invoice, balance int) {
	if h.bus == nil {
		return
	}
	event, err := events.NewEvent(events.TopicCreditsPurchased, "", events.CreditsPayload{
		Credits: invoice.Credits,
		Balance: balance,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to build credits event")
		return
	}
	event.UserID = userID
	if err := h.bus.Publish(event); err != nil {
		logging.Error().Err(err).Msg("Failed to publish credits event")
	}
}

// ListInvoices handles GET /api/v1/billing/invoices.
//
// @Summary List invoices
// @Tags billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse
// @Router /api/v1/billing/invoices [get]
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	invoices, err := h.db.ListInvoices(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list invoices", err)
		return
	}

	respondPage(w, invoices, len(invoices), 0, 0)
}
