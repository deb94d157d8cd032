// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/metrics"
)

// BreakerClient wraps Client with a circuit breaker so a flapping
// GitHub API trips fast instead of burning the request budget.
//
// The breaker uses real time for its interval and timeout; tests
// should exercise the wrapped client directly.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a GitHub client behind a circuit breaker:
// 3 concurrent requests in half-open state, 1 minute measurement
// window, 2 minute recovery timeout, opening at a 60% failure rate
// over at least 10 requests.
func NewBreakerClient(cfg *config.GitHubConfig, token string) *BreakerClient {
	cbName := "github-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening github circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: NewClient(cfg, token),
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps one API call with circuit breaker protection.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] GitHub request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// VerifyRepo checks repository reachability with breaker protection.
func (bc *BreakerClient) VerifyRepo(ctx context.Context, owner, repo string) (string, error) {
	result, err := bc.execute(func() (interface{}, error) {
		branch, err := bc.client.VerifyRepo(ctx, owner, repo)
		return &branch, err
	})
	branch, err := castResult[string](result, err)
	if err != nil {
		return "", err
	}
	return *branch, nil
}

// ListCommits lists commits with breaker protection.
func (bc *BreakerClient) ListCommits(ctx context.Context, owner, repo string, maxCommits int) ([]CommitInfo, error) {
	result, err := castResult[[]CommitInfo](bc.execute(func() (interface{}, error) {
		commits, err := bc.client.ListCommits(ctx, owner, repo, maxCommits)
		return &commits, err
	}))
	if err != nil {
		return nil, err
	}
	return *result, nil
}

// GetCommitDiff fetches a commit diff with breaker protection.
func (bc *BreakerClient) GetCommitDiff(ctx context.Context, owner, repo, sha string) (*CommitDiff, error) {
	return castResult[CommitDiff](bc.execute(func() (interface{}, error) {
		return bc.client.GetCommitDiff(ctx, owner, repo, sha)
	}))
}

// CountRepositoryFiles counts tree blobs with breaker protection.
func (bc *BreakerClient) CountRepositoryFiles(ctx context.Context, owner, repo, ref string) (int, error) {
	result, err := castResult[int](bc.execute(func() (interface{}, error) {
		count, err := bc.client.CountRepositoryFiles(ctx, owner, repo, ref)
		return &count, err
	}))
	if err != nil {
		return 0, err
	}
	return *result, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
