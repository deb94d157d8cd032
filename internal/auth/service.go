// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/models"
)

// Auth modes.
const (
	ModeOIDC  = "oidc"
	ModeBasic = "basic"
	ModeNone  = "none"
)

// devExternalID identifies the implicit user of "none" mode.
const devExternalID = "dev-user"

// Session is an issued session token with its expiry.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service ties the configured auth mode, the user store and the JWT
// manager together. Every login path ends with an upserted user row
// and a session token.
type Service struct {
	mode           string
	db             *database.DB
	jwt            *JWTManager
	flow           *OIDCFlow
	basic          *BasicAuthManager
	initialCredits int
}

// NewService builds the auth service for the configured mode. The
// context bounds OIDC discovery in oidc mode.
func NewService(ctx context.Context, cfg *config.Config, db *database.DB) (*Service, error) {
	jwtManager, err := NewJWTManager(&cfg.Auth)
	if err != nil {
		return nil, err
	}

	s := &Service{
		mode:           cfg.Auth.Mode,
		db:             db,
		jwt:            jwtManager,
		initialCredits: cfg.Billing.InitialCredits,
	}

	switch cfg.Auth.Mode {
	case ModeOIDC:
		states, err := newStateStore(cfg.Auth.SessionStorePath)
		if err != nil {
			return nil, err
		}
		flow, err := NewOIDCFlow(ctx, &cfg.Auth, states)
		if err != nil {
			return nil, err
		}
		s.flow = flow

	case ModeBasic:
		basic, err := NewBasicAuthManager(&cfg.Auth)
		if err != nil {
			return nil, err
		}
		s.basic = basic

	case ModeNone:
		logging.Warn().Msg("Auth mode 'none': every request runs as the dev user")

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}

	return s, nil
}

func newStateStore(path string) (StateStore, error) {
	if path == "" {
		return NewMemoryStateStore(), nil
	}
	return NewBadgerStateStore(path)
}

// Mode returns the configured auth mode.
func (s *Service) Mode() string {
	return s.mode
}

// LoginURL returns the OIDC provider redirect for oidc mode.
func (s *Service) LoginURL(ctx context.Context, postLoginRedirect string) (string, error) {
	if s.flow == nil {
		return "", fmt.Errorf("login redirect requires oidc mode, configured mode is %q", s.mode)
	}
	return s.flow.AuthorizationURL(ctx, postLoginRedirect)
}

// HandleCallback completes the OIDC flow: exchange the code, upsert
// the asserted identity and issue a session.
func (s *Service) HandleCallback(ctx context.Context, code, state string) (*models.User, *Session, string, error) {
	if s.flow == nil {
		return nil, nil, "", fmt.Errorf("oidc callback requires oidc mode, configured mode is %q", s.mode)
	}

	identity, redirect, err := s.flow.HandleCallback(ctx, code, state)
	if err != nil {
		return nil, nil, "", err
	}

	user, session, err := s.establishSession(ctx, identity)
	if err != nil {
		return nil, nil, "", err
	}
	return user, session, redirect, nil
}

// PasswordLogin authenticates the admin account in basic mode.
func (s *Service) PasswordLogin(ctx context.Context, email, password string) (*models.User, *Session, error) {
	if s.basic == nil {
		return nil, nil, fmt.Errorf("password login requires basic mode, configured mode is %q", s.mode)
	}

	if err := s.basic.ValidateCredentials(email, password); err != nil {
		return nil, nil, err
	}

	return s.establishSession(ctx, &Identity{
		ExternalID: "admin:" + s.basic.Email(),
		Email:      s.basic.Email(),
		FirstName:  "Admin",
	})
}

// Authenticate resolves a session token to its user. In "none" mode
// an empty token resolves to the dev user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		if s.mode == ModeNone {
			return s.upsertIdentity(ctx, &Identity{
				ExternalID: devExternalID,
				Email:      "dev@localhost",
				FirstName:  "Dev",
			})
		}
		return nil, ErrUnauthenticated
	}

	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnauthenticated, err.Error())
	}

	user, err := s.db.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
	}
	return user, nil
}

func (s *Service) establishSession(ctx context.Context, identity *Identity) (*models.User, *Session, error) {
	user, err := s.upsertIdentity(ctx, identity)
	if err != nil {
		return nil, nil, err
	}

	token, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}

	return user, &Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) upsertIdentity(ctx context.Context, identity *Identity) (*models.User, error) {
	user, err := s.db.UpsertUser(ctx, &models.User{
		ExternalID: identity.ExternalID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		ImageURL:   identity.ImageURL,
	}, s.initialCredits)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}
