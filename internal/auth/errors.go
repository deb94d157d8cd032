// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package auth implements sign-in for Dionysus. Three modes exist:
// "oidc" (any OIDC provider via the certified zitadel relying party),
// "basic" (a single admin account with a bcrypt password hash), and
// "none" (development only). All modes end in the same place: an
// upserted user row and an HS256 session JWT.
package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidState is returned when an OIDC callback carries an
	// unknown or expired state parameter.
	ErrInvalidState = errors.New("invalid or expired state")

	// ErrTokenExchangeFailed is returned when the authorization code
	// cannot be exchanged for tokens.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrUnauthenticated is returned when a request carries no valid
	// session token.
	ErrUnauthenticated = errors.New("unauthenticated")
)
