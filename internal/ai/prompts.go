// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package ai

import (
	"fmt"
	"strings"
)

const summarySystemPrompt = `You are an expert programmer summarizing a git diff for a changelog.
Write 1-4 short bullet points, each starting with "- ".
Use active voice and past tense. Name the most important files touched.
Do not start with "This commit" or restate the commit message verbatim.
Do not invent changes that are not in the diff.`

const questionSystemPrompt = `You are a code assistant answering questions about a GitHub repository.
You are given recent commit summaries as context. Answer from that context.
If the context does not contain the answer, say so plainly instead of guessing.
Use markdown. Be concise.`

// buildSummaryPrompt renders the user prompt for one diff summary.
// Diffs beyond maxDiffBytes are truncated with a marker so the model
// sees the beginning of the change rather than an error.
func buildSummaryPrompt(commitMessage, diff string) string {
	if len(diff) > maxDiffBytes {
		diff = diff[:maxDiffBytes] + "\n[diff truncated]"
	}

	var b strings.Builder
	b.WriteString("Commit message:\n")
	b.WriteString(commitMessage)
	b.WriteString("\n\nDiff:\n```diff\n")
	b.WriteString(diff)
	b.WriteString("\n```")
	return b.String()
}

// buildQuestionPrompt renders the chat prompt: the question plus the
// recent commit summaries block.
func buildQuestionPrompt(question string, commits []CommitContext) string {
	var b strings.Builder
	b.WriteString("Recent commits:\n\n")

	for _, c := range commits {
		short := c.Hash
		if len(short) > 8 {
			short = short[:8]
		}
		fmt.Fprintf(&b, "## %s (%s)\n%s\n", short, c.AuthoredAt.Format("2006-01-02"), firstLine(c.Message))
		if c.Summary != "" {
			b.WriteString(c.Summary)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
