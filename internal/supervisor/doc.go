// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

/*
Package supervisor provides process supervision for Dionysus using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation, and
graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("dionysus")
	├── WorkersSupervisor ("workers-layer")
	│   ├── sync.Scheduler (periodic commit sync)
	│   └── meetings.Worker (meeting issue extraction)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocketHubService
	│   └── EventBridgeService (bus -> hub fan-out)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A crash during a sync run doesn't drop WebSocket connections
  - A meeting worker failure doesn't impact API availability
  - Each layer can restart independently

# Usage Example

Basic setup in main.go:

	logger := slog.Default()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    log.Fatal(err)
	}

	tree.AddWorkerService(scheduler)
	tree.AddWorkerService(meetingWorker)
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewEventBridgeService(hub, bus))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil {
	    log.Printf("supervisor stopped: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior. Default values match suture's
production-ready defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

# What Is NOT Supervised

DuckDB is intentionally not supervised. It's an embedded library, not a
long-running service, and connections are managed by the database package.
The GitHub and Anthropic API clients are also not supervised; they get
failure isolation from their circuit breakers instead.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("service didn't stop: %v", svc)
	}
*/
package supervisor
