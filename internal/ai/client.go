// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package ai wraps the Anthropic messages API for the two language
// model operations Dionysus performs: summarizing a commit diff and
// answering a free-text question over recent commit summaries.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/metrics"
)

// maxDiffBytes caps how much diff text is sent per summarize call.
// Oversized diffs are truncated with a marker rather than rejected.
const maxDiffBytes = 20000

// CommitContext is one commit summary offered to the chat prompt.
type CommitContext struct {
	Hash       string
	Message    string
	Summary    string
	AuthoredAt time.Time
}

// Client talks to the Anthropic messages API.
type Client struct {
	anthropic anthropic.Client
	limiter   *rate.Limiter
	cfg       *config.AIConfig
}

// NewClient creates a language model client with a per-minute rate
// limiter sized from configuration.
func NewClient(cfg *config.AIConfig) *Client {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 50
	}

	return &Client{
		anthropic: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 5),
		cfg:       cfg,
	}
}

// SummarizeDiff produces bullet-point summary text for one commit's
// diff. The commit message is included for context; diffs over
// maxDiffBytes are truncated.
func (c *Client) SummarizeDiff(ctx context.Context, commitMessage, diff string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	prompt := buildSummaryPrompt(commitMessage, diff)

	start := time.Now()
	text, err := c.complete(ctx, summarySystemPrompt, prompt)
	metrics.RecordAIRequest("summarize_diff", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to summarize diff: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// AnswerQuestion answers a free-text question, given a fixed-size
// slice of the project's recent commit summaries as context.
func (c *Client) AnswerQuestion(ctx context.Context, question string, commits []CommitContext) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	prompt := buildQuestionPrompt(question, commits)

	start := time.Now()
	text, err := c.complete(ctx, questionSystemPrompt, prompt)
	metrics.RecordAIRequest("answer_question", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to answer question: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// complete issues one messages call and concatenates the text blocks.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	maxTokens := c.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	message, err := c.anthropic.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	return b.String(), nil
}
