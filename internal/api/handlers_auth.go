// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"errors"
	"net/http"

	"github.com/dionysus-app/dionysus/internal/auth"
	"github.com/dionysus-app/dionysus/internal/models"
)

// setSessionCookie attaches the session JWT as an HTTP-only cookie so
// browser clients authenticate without storing the token themselves.
func (h *Handler) setSessionCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.Server.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
}

// Login handles GET /auth/login.
//
// @Summary Start OIDC login
// @Description Redirects to the identity provider's authorization endpoint
// @Tags auth
// @Param redirect query string false "Post-login redirect path"
// @Success 302
// @Failure 503 {object} models.APIResponse
// @Router /auth/login [get]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	url, err := h.auth.LoginURL(r.Context(), r.URL.Query().Get("redirect"))
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, codeUpstreamFailed, "login is not available in this auth mode", err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// Callback handles GET /auth/callback.
//
// @Summary Complete OIDC login
// @Description Exchanges the authorization code, upserts the user, and sets the session cookie
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "Opaque state from /auth/login"
// @Success 302
// @Failure 400 {object} models.APIResponse
// @Router /auth/callback [get]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		respondError(w, http.StatusBadRequest, codeValidation, "code and state are required", nil)
		return
	}

	_, session, redirect, err := h.auth.HandleCallback(r.Context(), code, state)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidState) {
			respondError(w, http.StatusBadRequest, codeValidation, "login state is invalid or expired", err)
			return
		}
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "login failed", err)
		return
	}

	h.setSessionCookie(w, session)
	if redirect == "" {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

// Token handles POST /api/v1/auth/token.
//
// @Summary Credential login
// @Description Issues a session JWT for the configured admin credentials (basic auth mode)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /api/v1/auth/token [post]
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, "invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	user, session, err := h.auth.PasswordLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, "invalid credentials", nil)
			return
		}
		respondError(w, http.StatusServiceUnavailable, codeUpstreamFailed, "credential login is not available in this auth mode", err)
		return
	}

	h.setSessionCookie(w, session)
	respondData(w, http.StatusOK, map[string]interface{}{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	})
}

// Me handles GET /api/v1/auth/me.
//
// @Summary Current user
// @Description Returns the authenticated user's profile and credit balance
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Router /api/v1/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
		return
	}

	// Re-read so the balance reflects syncs completed after login.
	fresh, err := h.db.GetUserByID(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to load user", err)
		return
	}

	respondData(w, http.StatusOK, fresh)
}

// requireUser pulls the authenticated user from the request context.
// The auth middleware guarantees presence on protected routes.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required", nil)
		return nil, false
	}
	return user, true
}
