// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/logging"
)

// Service resolves a user's role in a project from the membership
// table and enforces the role policy.
type Service struct {
	db       *database.DB
	enforcer *Enforcer
}

// NewService creates the authorization service.
func NewService(db *database.DB) (*Service, error) {
	enforcer, err := NewEnforcer()
	if err != nil {
		return nil, err
	}
	return &Service{db: db, enforcer: enforcer}, nil
}

// Authorize returns nil when the user may perform the action on the
// project, ErrForbidden otherwise. Non-members are indistinguishable
// from members lacking the permission.
func (s *Service) Authorize(ctx context.Context, userID, projectID, action string) error {
	role, err := s.db.GetMemberRole(ctx, userID, projectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("resolve member role: %w", err)
	}

	allowed, err := s.enforcer.RoleAllows(role, action)
	if err != nil {
		return err
	}
	if !allowed {
		logging.Debug().
			Str("user_id", userID).
			Str("project_id", projectID).
			Str("role", role).
			Str("action", action).
			Msg("Authorization denied")
		return ErrForbidden
	}
	return nil
}
