// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package main provides the Dionysus HTTP server
//
// Dionysus API provides GitHub project intelligence: commit sync with
// AI summaries, grounded Q&A, meeting issue extraction, and credit billing.
//
// @title Dionysus API
// @version 1.0
// @description GitHub project intelligence and collaboration platform
// @description
// @description ## Features
// @description
// @description - **Project Linking**: Connect GitHub repositories to shared projects
// @description - **Commit Sync**: Incremental ingestion of commit history with AI diff summaries
// @description - **Grounded Q&A**: Chat with an assistant over recent commit summaries
// @description - **Meetings**: Background extraction of timestamped issues from meetings
// @description - **Credits**: Per-user credit metering with simulated checkout
// @description - **Real-time Updates**: WebSocket notifications for sync and meeting events
// @description
// @description ## Authentication
// @description
// @description Most endpoints require a session JWT, sent either as a Bearer token
// @description or in the HTTP-only session cookie. Obtain a session via the OIDC
// @description flow (`/auth/login`) or `/api/v1/auth/token` in basic mode.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description Stricter limits apply to login, sync, and question endpoints.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-08-29T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/dionysus-app/dionysus/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8466
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session JWT. Obtain via the OIDC flow or /api/v1/auth/token.
//
// @tag.name Core
// @tag.description Health checks, readiness, and system status
//
// @tag.name Auth
// @tag.description Authentication and session management endpoints
//
// @tag.name Projects
// @tag.description Project creation, membership, and repository linking
//
// @tag.name Sync
// @tag.description Commit sync triggering and status
//
// @tag.name Commits
// @tag.description Synced commit listings with AI summaries
//
// @tag.name Questions
// @tag.description AI Q&A over recent commit summaries
//
// @tag.name Meetings
// @tag.description Meeting processing and issue extraction
//
// @tag.name Billing
// @tag.description Credit balance, transactions, and checkout
//
// @tag.name Realtime
// @tag.description Real-time WebSocket connections for sync and meeting events
package main
