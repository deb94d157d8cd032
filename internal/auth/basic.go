// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dionysus-app/dionysus/internal/config"
)

// BasicAuthManager authenticates the single admin account configured
// for "basic" mode. The password is supplied as a bcrypt hash, never
// plaintext.
type BasicAuthManager struct {
	email        string
	passwordHash []byte
}

// NewBasicAuthManager creates a manager from the auth configuration.
func NewBasicAuthManager(cfg *config.AuthConfig) (*BasicAuthManager, error) {
	if cfg.AdminEmail == "" {
		return nil, fmt.Errorf("admin_email is required for basic auth mode")
	}
	if cfg.AdminPasswordHash == "" {
		return nil, fmt.Errorf("admin_password_hash is required for basic auth mode")
	}
	if _, err := bcrypt.Cost([]byte(cfg.AdminPasswordHash)); err != nil {
		return nil, fmt.Errorf("admin_password_hash is not a valid bcrypt hash: %w", err)
	}

	return &BasicAuthManager{
		email:        cfg.AdminEmail,
		passwordHash: []byte(cfg.AdminPasswordHash),
	}, nil
}

// HashPassword bcrypt-hashes a password at cost 12, for generating
// the configured hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ValidateCredentials checks an email/password pair. Both checks
// always run so timing does not reveal whether the email matched.
func (m *BasicAuthManager) ValidateCredentials(email, password string) error {
	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(m.email)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil

	if !emailMatch || !passwordMatch {
		return ErrInvalidCredentials
	}
	return nil
}

// Email returns the configured admin email.
func (m *BasicAuthManager) Email() string {
	return m.email
}
