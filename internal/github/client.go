// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package github wraps the GitHub REST API for the commit sync
// pipeline: listing commits, fetching a commit's diff as text, and
// sizing a repository for credit metering.
//
// All calls pass through a client-side rate limiter sized under the
// authenticated REST budget (5000 requests/hour), and the sync engine
// consumes the client through a circuit breaker (see breaker.go).
package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/metrics"
)

// CommitInfo is one commit as listed from GitHub, before diffing.
type CommitInfo struct {
	Hash         string
	Message      string
	AuthorName   string
	AuthorAvatar string
	AuthoredAt   time.Time
}

// CommitDiff is the textual diff of a single commit plus its stats.
type CommitDiff struct {
	Hash      string
	Diff      string
	Additions int
	Deletions int
}

// Client talks to the GitHub REST API for one token.
type Client struct {
	gh      *gh.Client
	limiter *rate.Limiter
	cfg     *config.GitHubConfig
}

// NewClient creates a client authenticated with the given token.
// An empty token falls back to the configured default token; if that
// is also empty the client is unauthenticated (60 requests/hour).
func NewClient(cfg *config.GitHubConfig, token string) *Client {
	if token == "" {
		token = cfg.Token
	}

	httpClient := oauth2.NewClient(context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	if token == "" {
		httpClient = nil
	}

	reqsPerHour := cfg.RequestsPerHour
	if reqsPerHour <= 0 {
		reqsPerHour = 4500
	}

	return &Client{
		gh:      gh.NewClient(httpClient),
		limiter: rate.NewLimiter(rate.Every(time.Hour/time.Duration(reqsPerHour)), 10),
		cfg:     cfg,
	}
}

// wait blocks until the rate limiter admits one request.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// VerifyRepo checks that the repository exists and is reachable with
// the client's credentials. Returns the default branch.
func (c *Client) VerifyRepo(ctx context.Context, owner, repo string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	repository, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	metrics.RecordGitHubRequest("get_repo", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
	}

	return repository.GetDefaultBranch(), nil
}

// ListCommits lists up to maxCommits commits newest-first, paging at
// the configured page size.
func (c *Client) ListCommits(ctx context.Context, owner, repo string, maxCommits int) ([]CommitInfo, error) {
	pageSize := c.cfg.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	if maxCommits <= 0 {
		maxCommits = c.cfg.MaxCommitsPerSync
	}

	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize},
	}

	commits := []CommitInfo{}
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		page, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
		metrics.RecordGitHubRequest("list_commits", time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("failed to list commits for %s/%s: %w", owner, repo, err)
		}

		for _, rc := range page {
			commits = append(commits, commitInfoFromAPI(rc))
			if len(commits) >= maxCommits {
				return commits, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return commits, nil
}

// GetCommitDiff fetches one commit's diff as unified text along with
// its addition/deletion totals. The diff is assembled from the
// per-file patches the API returns.
func (c *Client) GetCommitDiff(ctx context.Context, owner, repo, sha string) (*CommitDiff, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	commit, _, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	metrics.RecordGitHubRequest("get_commit", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", sha, err)
	}

	var b strings.Builder
	for _, file := range commit.Files {
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", file.GetFilename(), file.GetFilename())
		if patch := file.GetPatch(); patch != "" {
			b.WriteString(patch)
			if !strings.HasSuffix(patch, "\n") {
				b.WriteByte('\n')
			}
		}
	}

	diff := &CommitDiff{
		Hash: sha,
		Diff: b.String(),
	}
	if stats := commit.GetStats(); stats != nil {
		diff.Additions = stats.GetAdditions()
		diff.Deletions = stats.GetDeletions()
	}

	return diff, nil
}

// CountRepositoryFiles returns the number of blobs in the repository
// tree at the given ref. Used to price project creation in credits.
func (c *Client) CountRepositoryFiles(ctx context.Context, owner, repo, ref string) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	metrics.RecordGitHubRequest("get_tree", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to get tree for %s/%s@%s: %w", owner, repo, ref, err)
	}

	count := 0
	for _, entry := range tree.Entries {
		if entry.GetType() == "blob" {
			count++
		}
	}

	return count, nil
}

func commitInfoFromAPI(rc *gh.RepositoryCommit) CommitInfo {
	info := CommitInfo{
		Hash:    rc.GetSHA(),
		Message: rc.GetCommit().GetMessage(),
	}

	if author := rc.GetCommit().GetAuthor(); author != nil {
		info.AuthorName = author.GetName()
		info.AuthoredAt = author.GetDate().Time.UTC()
	}
	if ghAuthor := rc.GetAuthor(); ghAuthor != nil {
		info.AuthorAvatar = ghAuthor.GetAvatarURL()
		if info.AuthorName == "" {
			info.AuthorName = ghAuthor.GetLogin()
		}
	}

	return info
}
