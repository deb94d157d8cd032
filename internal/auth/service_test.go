// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func basicConfig(t *testing.T) *config.Config {
	t.Helper()

	hash, err := HashPassword("swordfish")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	return &config.Config{
		Auth: config.AuthConfig{
			Mode:              ModeBasic,
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			AdminEmail:        "admin@example.com",
			AdminPasswordHash: hash,
		},
		Billing: config.BillingConfig{InitialCredits: 150},
	}
}

func TestPasswordLoginIssuesSession(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(context.Background(), basicConfig(t), db)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	user, session, err := svc.PasswordLogin(context.Background(), "admin@example.com", "swordfish")
	if err != nil {
		t.Fatalf("PasswordLogin() error = %v", err)
	}
	if user.Email != "admin@example.com" {
		t.Errorf("Email = %q, want admin@example.com", user.Email)
	}
	if user.Credits != 150 {
		t.Errorf("Credits = %d, want initial 150", user.Credits)
	}

	resolved, err := svc.Authenticate(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("Authenticate() user = %s, want %s", resolved.ID, user.ID)
	}
}

func TestPasswordLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(context.Background(), basicConfig(t), db)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "admin@example.com", password: "nope"},
		{name: "wrong email", email: "other@example.com", password: "swordfish"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := svc.PasswordLogin(context.Background(), tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("PasswordLogin() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestPasswordLoginKeepsCreditsAcrossLogins(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(context.Background(), basicConfig(t), db)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	user, _, err := svc.PasswordLogin(context.Background(), "admin@example.com", "swordfish")
	if err != nil {
		t.Fatalf("PasswordLogin() error = %v", err)
	}
	if err := db.DeductCredits(context.Background(), user.ID, 40); err != nil {
		t.Fatalf("DeductCredits() error = %v", err)
	}

	again, _, err := svc.PasswordLogin(context.Background(), "admin@example.com", "swordfish")
	if err != nil {
		t.Fatalf("second PasswordLogin() error = %v", err)
	}
	if again.Credits != 110 {
		t.Errorf("Credits = %d, want 110; login must not reset the balance", again.Credits)
	}
}

func TestAuthenticateNoneModeReturnsDevUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	cfg := basicConfig(t)
	cfg.Auth.Mode = ModeNone

	svc, err := NewService(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	user, err := svc.Authenticate(context.Background(), "")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ExternalID != devExternalID {
		t.Errorf("ExternalID = %q, want %q", user.ExternalID, devExternalID)
	}
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(context.Background(), basicConfig(t), db)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Authenticate() error = %v, want ErrUnauthenticated", err)
	}
}

func TestMiddlewareInjectsUser(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(context.Background(), basicConfig(t), db)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	_, session, err := svc.PasswordLogin(context.Background(), "admin@example.com", "swordfish")
	if err != nil {
		t.Fatalf("PasswordLogin() error = %v", err)
	}

	var seen *models.User
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
	}))

	tests := []struct {
		name       string
		addToken   func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "bearer header",
			addToken:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+session.Token) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "session cookie",
			addToken:   func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token}) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "no token",
			addToken:   func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			addToken:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			tt.addToken(req)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && seen == nil {
				t.Error("handler did not receive user from context")
			}
		})
	}
}

func TestStateStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStateStore()
	ctx := context.Background()

	state := &StateData{
		Nonce:     "nonce-1",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := store.Store(ctx, "key-1", state); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := store.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Nonce != "nonce-1" {
		t.Errorf("Nonce = %q, want nonce-1", got.Nonce)
	}

	if err := store.Delete(ctx, "key-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "key-1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Get() after delete = %v, want ErrInvalidState", err)
	}
}

func TestStateStoreRejectsExpired(t *testing.T) {
	t.Parallel()

	store := NewMemoryStateStore()
	ctx := context.Background()

	state := &StateData{
		CreatedAt: time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := store.Store(ctx, "stale", state); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if _, err := store.Get(ctx, "stale"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Get() expired = %v, want ErrInvalidState", err)
	}
}
