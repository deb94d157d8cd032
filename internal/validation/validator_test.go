// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package validation

import (
	"strings"
	"testing"
)

type projectForm struct {
	Name    string `validate:"required,min=1,max=200"`
	RepoURL string `validate:"required,url"`
	Role    string `validate:"omitempty,oneof=owner member"`
	Credits int    `validate:"omitempty,min=1,max=100000"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	form := projectForm{
		Name:    "dionysus",
		RepoURL: "https://github.com/dionysus-app/dionysus",
		Role:    "member",
		Credits: 50,
	}

	if err := ValidateStruct(&form); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		form      projectForm
		wantField string
		wantTag   string
	}{
		{
			name:      "missing name",
			form:      projectForm{RepoURL: "https://github.com/a/b"},
			wantField: "Name",
			wantTag:   "required",
		},
		{
			name:      "bad repo url",
			form:      projectForm{Name: "x", RepoURL: "not a url"},
			wantField: "RepoURL",
			wantTag:   "url",
		},
		{
			name:      "bad role",
			form:      projectForm{Name: "x", RepoURL: "https://github.com/a/b", Role: "admin"},
			wantField: "Role",
			wantTag:   "oneof",
		},
		{
			name:      "credits out of range",
			form:      projectForm{Name: "x", RepoURL: "https://github.com/a/b", Credits: 500000},
			wantField: "Credits",
			wantTag:   "max",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.form)
			if err == nil {
				t.Fatal("expected validation error")
			}

			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %s/%s in %v", tt.wantField, tt.wantTag, err)
			}
		})
	}
}

func TestToAPIErrorSingleAndMulti(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(&projectForm{Name: "x", RepoURL: "nope"})
	if single == nil {
		t.Fatal("expected validation error")
	}
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected code %q", apiErr.Code)
	}
	if apiErr.Details["field"] != "RepoURL" {
		t.Fatalf("unexpected details: %v", apiErr.Details)
	}

	multi := ValidateStruct(&projectForm{})
	if multi == nil {
		t.Fatal("expected validation error")
	}
	multiErr := multi.ToAPIError()
	if !strings.Contains(multiErr.Message, ";") {
		t.Fatalf("expected combined message, got %q", multiErr.Message)
	}
	if _, ok := multiErr.Details["fields"]; !ok {
		t.Fatalf("expected fields detail, got %v", multiErr.Details)
	}
}
