// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package sync

import (
	"context"
	"time"

	"github.com/dionysus-app/dionysus/internal/logging"
)

// Scheduler periodically syncs every active project and runs the
// backfill sweep. It satisfies suture's Service interface.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
}

// NewScheduler creates a scheduler. A non-positive interval disables
// periodic sync; Serve then only waits for cancellation.
func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	return &Scheduler{engine: engine, interval: interval}
}

// Serve runs the periodic loop until ctx is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		logging.Info().Msg("Periodic sync disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	logging.Info().Dur("interval", s.interval).Msg("Periodic sync started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Periodic sync stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	projects, err := s.engine.db.ListActiveProjects(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Scheduled sync could not list projects")
		return
	}

	for i := range projects {
		if ctx.Err() != nil {
			return
		}
		s.syncProject(ctx, projects[i].ID)
	}

	if _, err := s.engine.Backfill(ctx); err != nil && ctx.Err() == nil {
		logging.Warn().Err(err).Msg("Backfill sweep failed")
	}
}

// syncProject runs one scheduled sync under the project owner's credit
// balance. Projects whose owner is out of credits are skipped, and each
// summarized commit is charged to the owner afterwards, the same meter
// a manually triggered sync applies to its caller.
func (s *Scheduler) syncProject(ctx context.Context, projectID string) {
	ownerID, err := s.engine.db.GetProjectOwner(ctx, projectID)
	if err != nil {
		logging.Warn().Str("project_id", projectID).Err(err).Msg("Scheduled sync could not resolve owner")
		return
	}

	owner, err := s.engine.db.GetUserByID(ctx, ownerID)
	if err != nil {
		logging.Warn().Str("project_id", projectID).Err(err).Msg("Scheduled sync could not load owner")
		return
	}
	if owner.Credits <= 0 {
		logging.Debug().Str("project_id", projectID).Str("user_id", ownerID).Msg("Skipping scheduled sync, owner has no credits")
		return
	}

	status, err := s.engine.SyncProject(ctx, projectID)
	if err != nil {
		logging.Warn().Str("project_id", projectID).Err(err).Msg("Scheduled sync failed")
	}
	if status == nil || status.Summarized == 0 {
		return
	}

	if err := s.engine.db.ChargeCredits(ctx, ownerID, status.Summarized); err != nil {
		logging.Error().Err(err).Str("user_id", ownerID).Msg("Failed to charge scheduled sync credits")
	}
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string {
	return "sync-scheduler"
}
