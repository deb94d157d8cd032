// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package authz decides what a project member may do. Membership
// (who belongs to which project, with what role) lives in the
// database; the role-to-action policy is a Casbin RBAC model
// embedded in the binary.
package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// ErrForbidden is returned when the caller's role does not permit
// the action, or the caller is not a member of the project.
var ErrForbidden = errors.New("forbidden")

// Actions on a project.
const (
	ActionRead     = "read"
	ActionSync     = "sync"
	ActionAsk      = "ask"
	ActionMeetings = "meetings"
	ActionUpdate   = "update"
	ActionArchive  = "archive"
	ActionMembers  = "members"
)

const objectProject = "project"

// Enforcer wraps the Casbin enforcer over the embedded model and
// policy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds the enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadEmbeddedPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 4 || parts[0] != "p" {
			continue
		}

		if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
			return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}

// RoleAllows reports whether the role permits the action on a
// project.
func (e *Enforcer) RoleAllows(role, action string) (bool, error) {
	allowed, err := e.enforcer.Enforce(role, objectProject, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return allowed, nil
}
