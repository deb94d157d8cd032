// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/models"
)

func TestRoleAllows(t *testing.T) {
	t.Parallel()

	enforcer, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	tests := []struct {
		role   string
		action string
		want   bool
	}{
		{role: models.RoleOwner, action: ActionRead, want: true},
		{role: models.RoleOwner, action: ActionArchive, want: true},
		{role: models.RoleOwner, action: ActionMembers, want: true},
		{role: models.RoleOwner, action: ActionUpdate, want: true},
		{role: models.RoleMember, action: ActionRead, want: true},
		{role: models.RoleMember, action: ActionSync, want: true},
		{role: models.RoleMember, action: ActionAsk, want: true},
		{role: models.RoleMember, action: ActionMeetings, want: true},
		{role: models.RoleMember, action: ActionArchive, want: false},
		{role: models.RoleMember, action: ActionMembers, want: false},
		{role: models.RoleMember, action: ActionUpdate, want: false},
		{role: "stranger", action: ActionRead, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"_"+tt.action, func(t *testing.T) {
			t.Parallel()
			got, err := enforcer.RoleAllows(tt.role, tt.action)
			if err != nil {
				t.Fatalf("RoleAllows() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RoleAllows(%q, %q) = %v, want %v", tt.role, tt.action, got, tt.want)
			}
		})
	}
}

func TestAuthorizeAgainstMembership(t *testing.T) {
	t.Parallel()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	ctx := context.Background()
	owner, err := db.UpsertUser(ctx, &models.User{ExternalID: "owner", Email: "owner@example.com"}, 150)
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	member, err := db.UpsertUser(ctx, &models.User{ExternalID: "member", Email: "member@example.com"}, 150)
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	outsider, err := db.UpsertUser(ctx, &models.User{ExternalID: "outsider", Email: "out@example.com"}, 150)
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}

	project, err := db.CreateProject(ctx, &models.Project{
		Name:    "dionysus",
		RepoURL: "https://github.com/dionysus-app/dionysus",
	}, owner.ID)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if err := db.AddProjectMember(ctx, member.ID, project.ID, models.RoleMember); err != nil {
		t.Fatalf("AddProjectMember() error = %v", err)
	}

	if err := svc.Authorize(ctx, owner.ID, project.ID, ActionArchive); err != nil {
		t.Errorf("owner archive = %v, want nil", err)
	}
	if err := svc.Authorize(ctx, member.ID, project.ID, ActionRead); err != nil {
		t.Errorf("member read = %v, want nil", err)
	}
	if err := svc.Authorize(ctx, member.ID, project.ID, ActionArchive); !errors.Is(err, ErrForbidden) {
		t.Errorf("member archive = %v, want ErrForbidden", err)
	}
	if err := svc.Authorize(ctx, outsider.ID, project.ID, ActionRead); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider read = %v, want ErrForbidden", err)
	}
}
