// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Commit sync pipeline progress
// - GitHub and AI upstream calls
// - Circuit breaker state
// - WebSocket connections

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Sync Pipeline Metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of commit sync runs",
		},
		[]string{"result"}, // "completed", "failed"
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of commit sync runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	SyncCommitsDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_commits_discovered_total",
			Help: "Total number of new commits discovered by sync runs",
		},
	)

	SyncSummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_summaries_total",
			Help: "Total number of commit summarization outcomes",
		},
		[]string{"result"}, // "success", "failure"
	)

	// Upstream Client Metrics
	GitHubRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "github_requests_total",
			Help: "Total number of GitHub REST API calls",
		},
		[]string{"operation", "result"},
	)

	GitHubRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "github_request_duration_seconds",
			Help:    "Duration of GitHub REST API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of language model API calls",
		},
		[]string{"operation", "result"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Duration of language model API calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// Diff Cache Metrics
	DiffCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diff_cache_hits_total",
			Help: "Total number of diff cache hits",
		},
	)

	DiffCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "diff_cache_misses_total",
			Help: "Total number of diff cache misses",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// WebSocket Metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Billing Metrics
	CreditsDeducted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_credits_deducted_total",
			Help: "Total credits deducted for metered usage",
		},
	)

	CreditsPurchased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_credits_purchased_total",
			Help: "Total credits granted through confirmed invoices",
		},
	)
)

// RecordAPIRequest records latency and count for one API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSyncRun records the outcome of one sync run.
func RecordSyncRun(duration time.Duration, discovered int, err error) {
	result := "completed"
	if err != nil {
		result = "failed"
	}
	SyncRunsTotal.WithLabelValues(result).Inc()
	SyncRunDuration.Observe(duration.Seconds())
	SyncCommitsDiscovered.Add(float64(discovered))
}

// RecordGitHubRequest records one GitHub REST call.
func RecordGitHubRequest(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	GitHubRequestsTotal.WithLabelValues(operation, result).Inc()
	GitHubRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAIRequest records one language model call.
func RecordAIRequest(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	AIRequestsTotal.WithLabelValues(operation, result).Inc()
	AIRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSummary records one summarization outcome.
func RecordSummary(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	SyncSummariesTotal.WithLabelValues(result).Inc()
}
