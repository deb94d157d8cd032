// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/dionysus-app/dionysus/internal/ai"
	"github.com/dionysus-app/dionysus/internal/auth"
	"github.com/dionysus-app/dionysus/internal/authz"
	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/github"
	"github.com/dionysus-app/dionysus/internal/models"
	syncpkg "github.com/dionysus-app/dionysus/internal/sync"
)

type fakeRepoClient struct {
	fileCount int
	verifyErr error
	commits   []github.CommitInfo
}

func (f *fakeRepoClient) VerifyRepo(ctx context.Context, owner, repo string) (string, error) {
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return "main", nil
}

func (f *fakeRepoClient) CountRepositoryFiles(ctx context.Context, owner, repo, ref string) (int, error) {
	return f.fileCount, nil
}

func (f *fakeRepoClient) ListCommits(ctx context.Context, owner, repo string, maxCommits int) ([]github.CommitInfo, error) {
	if len(f.commits) > maxCommits {
		return f.commits[:maxCommits], nil
	}
	return f.commits, nil
}

func (f *fakeRepoClient) GetCommitDiff(ctx context.Context, owner, repo, sha string) (*github.CommitDiff, error) {
	return &github.CommitDiff{Hash: sha, Diff: "diff for " + sha, Additions: 1, Deletions: 1}, nil
}

type fakeAnswerer struct {
	answer string
	err    error
}

func (f *fakeAnswerer) AnswerQuestion(ctx context.Context, question string, commits []ai.CommitContext) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("%s (from %d commits)", f.answer, len(commits)), nil
}

type fakeSummarizer struct{}

func (f *fakeSummarizer) SummarizeDiff(ctx context.Context, commitMessage, diff string) (string, error) {
	return "- summarized " + firstLine(commitMessage), nil
}

// testServer bundles everything a handler test touches.
type testServer struct {
	srv    *httptest.Server
	db     *database.DB
	cfg    *config.Config
	repo   *fakeRepoClient
	engine *syncpkg.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "development"},
		Database: config.DatabaseConfig{
			Path:      ":memory:",
			MaxMemory: "256MB",
			Threads:   2,
		},
		GitHub: config.GitHubConfig{
			RequestsPerHour:   4000,
			PageSize:          100,
			MaxCommitsPerSync: 100,
		},
		AI: config.AIConfig{
			Model:             "claude-3-5-haiku-latest",
			MaxTokens:         1024,
			RequestsPerMinute: 60,
			SummaryTimeout:    time.Second,
			ContextCommits:    15,
		},
		Sync: config.SyncConfig{
			Workers:       2,
			RetryAttempts: 2,
			RetryDelay:    time.Millisecond,
			BackfillBatch: 10,
		},
		Auth: config.AuthConfig{
			Mode:           auth.ModeNone,
			JWTSecret:      "0123456789abcdef0123456789abcdef",
			SessionTimeout: time.Hour,
		},
		Billing: config.BillingConfig{
			InitialCredits:   150,
			CreditsPerDollar: 50,
		},
		API: config.APIConfig{
			DefaultPageSize: 15,
			MaxPageSize:     100,
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := testConfig()

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	authSvc, err := auth.NewService(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	authzSvc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("authz service: %v", err)
	}

	repo := &fakeRepoClient{fileCount: 3}
	engine := syncpkg.NewEngine(db, func(token string) syncpkg.GitHubClient {
		return repo
	}, &fakeSummarizer{}, nil, nil, cfg)

	handler := NewHandler(db, cfg, authSvc, authzSvc, engine, &fakeAnswerer{answer: "the parser changed"}, func(token string) RepoClient {
		return repo
	}, nil, nil)

	router := NewRouter(handler, NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitDisabled:  true,
	}))

	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, db: db, cfg: cfg, repo: repo, engine: engine}
}

// do issues a request and decodes the envelope.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (int, *models.APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, &envelope
}

// dataMap asserts the envelope data is a JSON object.
func dataMap(t *testing.T, envelope *models.APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("expected object data, got %T", envelope.Data)
	}
	return m
}

// devUser resolves the dev user created by auth mode none.
func (ts *testServer) devUser(t *testing.T) *models.User {
	t.Helper()

	status, envelope := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	if status != http.StatusOK {
		t.Fatalf("auth/me returned %d", status)
	}
	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("remarshal user: %v", err)
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	return &user
}

// createProject provisions a project through the API.
func (ts *testServer) createProject(t *testing.T) string {
	t.Helper()

	status, envelope := ts.do(t, http.MethodPost, "/api/v1/projects", CreateProjectRequest{
		Name:    "dionysus",
		RepoURL: "https://github.com/dionysus-app/dionysus",
	})
	if status != http.StatusCreated {
		t.Fatalf("create project returned %d: %+v", status, envelope.Error)
	}

	project := dataMap(t, envelope)["project"].(map[string]interface{})
	return project["id"].(string)
}
