// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/dionysus-app/dionysus/internal/auth"
	"github.com/dionysus-app/dionysus/internal/authz"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/models"
)

// newBasicServer builds a server in basic auth mode where requests
// carry explicit credentials.
func newBasicServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := testConfig()
	cfg.Auth.Mode = auth.ModeBasic
	cfg.Auth.AdminEmail = "admin@example.com"

	hash, err := auth.HashPassword("swordfish")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	cfg.Auth.AdminPasswordHash = hash

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	authSvc, err := auth.NewService(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	authzSvc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("authz service: %v", err)
	}

	handler := NewHandler(db, cfg, authSvc, authzSvc, nil, nil, nil, nil, nil)
	srv := httptest.NewServer(NewRouter(handler, NewChiMiddleware(&ChiMiddlewareConfig{
		RateLimitDisabled: true,
	})).Setup())
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body interface{}, headers map[string]string) (int, *models.APIResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, &envelope
}

func TestTokenLoginAndBearerSession(t *testing.T) {
	t.Parallel()
	srv := newBasicServer(t)

	// API routes reject anonymous callers in basic mode.
	resp, err := srv.Client().Get(srv.URL + "/api/v1/auth/me")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	status, envelope := postJSON(t, srv, "/api/v1/auth/token", LoginRequest{
		Email:    "admin@example.com",
		Password: "swordfish",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("token login returned %d: %+v", status, envelope.Error)
	}
	data, _ := envelope.Data.(map[string]interface{})
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatal("expected a session token")
	}

	// The bearer token unlocks the API.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/auth/me", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with bearer token, got %d", resp.StatusCode)
	}
}

func TestTokenLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	srv := newBasicServer(t)

	tests := []struct {
		name string
		req  LoginRequest
		want int
	}{
		{"wrong password", LoginRequest{Email: "admin@example.com", Password: "nope"}, http.StatusUnauthorized},
		{"wrong email", LoginRequest{Email: "who@example.com", Password: "swordfish"}, http.StatusUnauthorized},
		{"not an email", LoginRequest{Email: "admin", Password: "swordfish"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			status, _ := postJSON(t, srv, "/api/v1/auth/token", tt.req, nil)
			if status != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, status)
			}
		})
	}
}

func TestLoginUnavailableInBasicMode(t *testing.T) {
	t.Parallel()
	srv := newBasicServer(t)

	client := srv.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Get(srv.URL + "/auth/login")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for OIDC login in basic mode, got %d", resp.StatusCode)
	}
}
