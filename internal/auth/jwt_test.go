// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dionysus-app/dionysus/internal/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestJWTManager(t *testing.T, timeout time.Duration) *JWTManager {
	t.Helper()

	m, err := NewJWTManager(&config.AuthConfig{JWTSecret: testSecret, SessionTimeout: timeout})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

func TestNewJWTManagerRejectsWeakSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret string
	}{
		{name: "empty", secret: ""},
		{name: "short", secret: "too-short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewJWTManager(&config.AuthConfig{JWTSecret: tt.secret}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)

	token, expiresAt, err := m.GenerateToken("user-1", "dev@example.com")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiresAt = %v, want about one hour out", expiresAt)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if claims.Email != "dev@example.com" {
		t.Errorf("Email = %q, want dev@example.com", claims.Email)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, -time.Minute)

	token, _, err := m.GenerateToken("user-1", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)

	token, _, err := m.GenerateToken("user-1", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := m.ValidateToken(tampered); err == nil {
		t.Error("expected error for tampered signature")
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	t.Parallel()

	m := newTestJWTManager(t, time.Hour)
	other, err := NewJWTManager(&config.AuthConfig{
		JWTSecret:      "another-secret-another-secret-xx",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, _, err := other.GenerateToken("user-1", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}
