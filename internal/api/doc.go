// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

/*
Package api provides the HTTP REST API layer for Dionysus.

Key components:

  - Router: Chi route configuration and middleware stack
  - Handler: request handlers for every endpoint
  - Response formatting: standardized JSON envelopes with metadata
  - Request validation: go-playground/validator structs in requests.go
  - Rate limiting: per-group go-chi/httprate limits
  - CORS: go-chi/cors, mounted globally for preflight handling

Route groups:

 1. Ops (/health, /ready, /metrics, /swagger): unauthenticated probes
    and docs with a permissive rate limit.
 2. Auth (/auth/login, /auth/callback, /api/v1/auth/token): OIDC code
    flow plus the basic credential fallback, strictly rate limited.
 3. API (/api/v1/...): session JWT required via the auth middleware;
    project-scoped routes additionally enforce casbin membership roles.
 4. Events (/api/v1/events): WebSocket upgrade feeding sync, meeting,
    and billing events from the in-process bus.

Every JSON response uses the models.APIResponse envelope; errors carry
machine-readable codes (VALIDATION_ERROR, UNAUTHORIZED, FORBIDDEN,
NOT_FOUND, CONFLICT, INSUFFICIENT_CREDITS, UPSTREAM_ERROR,
INTERNAL_ERROR).
*/
package api
