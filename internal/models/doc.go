// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package models defines the domain types shared across Dionysus:
// users, projects, commits, questions, meetings, and the billing ledger.
// All IDs are UUIDv4 strings and all timestamps are UTC.
package models
