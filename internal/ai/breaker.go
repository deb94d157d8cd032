// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package ai

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

// BreakerClient wraps Client with a circuit breaker so a degraded
// model API fails fast instead of stalling the sync workers.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a model client behind a circuit breaker
// with the same thresholds as the GitHub breaker: 3 half-open
// requests, 1 minute window, 2 minute recovery, opening at a 60%
// failure rate over at least 10 requests.
func NewBreakerClient(cfg *config.AIConfig) *BreakerClient {
	cbName := "ai-api"

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
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening ai circuit")
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
		client: NewClient(cfg),
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps one model call with circuit breaker protection.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] AI request rejected")
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

// SummarizeDiff summarizes a diff with breaker protection.
func (bc *BreakerClient) SummarizeDiff(ctx context.Context, commitMessage, diff string) (string, error) {
	result, err := castResult[string](bc.execute(func() (interface{}, error) {
		text, err := bc.client.SummarizeDiff(ctx, commitMessage, diff)
		return &text, err
	}))
	if err != nil {
		return "", err
	}
	return *result, nil
}

// AnswerQuestion answers a question with breaker protection.
func (bc *BreakerClient) AnswerQuestion(ctx context.Context, question string, commits []CommitContext) (string, error) {
	result, err := castResult[string](bc.execute(func() (interface{}, error) {
		text, err := bc.client.AnswerQuestion(ctx, question, commits)
		return &text, err
	}))
	if err != nil {
		return "", err
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
