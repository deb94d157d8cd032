// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package github

import "testing"

func TestParseRepoURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https", "https://github.com/acme/dionysus", "acme", "dionysus", false},
		{"https with .git", "https://github.com/acme/dionysus.git", "acme", "dionysus", false},
		{"https trailing slash", "https://github.com/acme/dionysus/", "acme", "dionysus", false},
		{"www host", "https://www.github.com/acme/dionysus", "acme", "dionysus", false},
		{"ssh", "git@github.com:acme/dionysus", "acme", "dionysus", false},
		{"ssh with .git", "git@github.com:acme/dionysus.git", "acme", "dionysus", false},
		{"bare path", "acme/dionysus", "acme", "dionysus", false},
		{"wrong host", "https://gitlab.com/acme/dionysus", "", "", true},
		{"missing repo", "https://github.com/acme", "", "", true},
		{"extra segments", "https://github.com/acme/dionysus/tree/main", "", "", true},
		{"empty", "", "", "", true},
		{"ssh missing repo", "git@github.com:acme", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			owner, repo, err := ParseRepoURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got owner=%s repo=%s", tt.input, owner, repo)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.input, err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("ParseRepoURL(%q) = %s/%s, want %s/%s", tt.input, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

func TestBreakerStateHelpers(t *testing.T) {
	t.Parallel()

	if got := stateToString(0); got != "closed" {
		t.Errorf("expected closed, got %s", got)
	}
	if got := stateToFloat(2); got != 2 {
		t.Errorf("expected open = 2, got %v", got)
	}
}
