// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package github

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRepoURL parses a GitHub repository URL into owner and repo.
// Both HTTPS (https://github.com/owner/repo) and SSH
// (git@github.com:owner/repo) forms are accepted, with or without a
// trailing .git suffix.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	repoURL = strings.TrimSuffix(strings.TrimSpace(repoURL), ".git")

	// SSH form: git@github.com:owner/repo
	if strings.HasPrefix(repoURL, "git@github.com:") {
		parts := strings.Split(strings.TrimPrefix(repoURL, "git@github.com:"), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("invalid SSH repository URL %q", repoURL)
		}
		return parts[0], parts[1], nil
	}

	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL: %w", err)
	}
	if u.Host != "" && u.Host != "github.com" && u.Host != "www.github.com" {
		return "", "", fmt.Errorf("not a github.com repository: %q", repoURL)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository URL %q, want github.com/owner/repo", repoURL)
	}

	return parts[0], parts[1], nil
}
