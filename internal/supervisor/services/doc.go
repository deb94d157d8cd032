// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package services provides suture.Service wrappers for components that
// don't natively implement the supervised service pattern.
//
// The sync scheduler and meeting worker implement suture.Service directly
// and are added to the tree as-is. The wrappers here adapt the remaining
// components:
//
//   - HTTPServerService: translates http.Server's blocking ListenAndServe
//     into a context-aware Serve with graceful Shutdown
//   - WebSocketHubService: names the hub's RunWithContext loop for logging
//   - EventBridgeService: runs the bus-to-hub broadcast bridge
//
// Each wrapper accepts a small interface rather than a concrete type so
// it can be tested with mocks and doesn't pull transport packages into
// the supervisor's dependency graph.
package services
