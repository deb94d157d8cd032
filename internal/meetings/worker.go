// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package meetings runs the background worker that completes uploaded
// meeting recordings. Transcription is out of scope; the worker stands
// in for it by attaching placeholder issue rows so the rest of the
// pipeline (status transitions, events, issue listing) behaves exactly
// as it will once a transcription backend is plugged in.
package meetings

import (
	"context"
	"fmt"
	"time"

	"github.com/dionysus-app/dionysus/internal/database"
	"github.com/dionysus-app/dionysus/internal/events"
	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/models"
)

const (
	defaultInterval  = 15 * time.Second
	defaultBatchSize = 20
)

// Worker sweeps processing meetings and completes them. It satisfies
// suture's Service interface.
type Worker struct {
	db       *database.DB
	bus      *events.Bus
	interval time.Duration
	batch    int
}

// NewWorker creates a meeting worker. bus may be nil.
func NewWorker(db *database.DB, bus *events.Bus, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{
		db:       db,
		bus:      bus,
		interval: interval,
		batch:    defaultBatchSize,
	}
}

// Serve runs the sweep loop until ctx is canceled.
func (w *Worker) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", w.interval).Msg("Meeting worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Meeting worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if n, err := w.ProcessOnce(ctx); err != nil {
				logging.Error().Err(err).Msg("Meeting sweep failed")
			} else if n > 0 {
				logging.Info().Int("completed", n).Msg("Meeting sweep finished")
			}
		}
	}
}

// String names the service in supervisor logs.
func (w *Worker) String() string {
	return "meeting-worker"
}

// ProcessOnce completes one batch of processing meetings and returns
// how many it finished. Exported so a sync trigger or test can drive
// the worker without the loop.
func (w *Worker) ProcessOnce(ctx context.Context) (int, error) {
	pending, err := w.db.ListProcessingMeetings(ctx, w.batch)
	if err != nil {
		return 0, fmt.Errorf("list processing meetings: %w", err)
	}

	completed := 0
	for i := range pending {
		meeting := &pending[i]
		if err := w.completeMeeting(ctx, meeting); err != nil {
			logging.Error().Err(err).Str("meeting_id", meeting.ID).Msg("Failed to complete meeting")
			continue
		}
		completed++
	}

	return completed, nil
}

func (w *Worker) completeMeeting(ctx context.Context, meeting *models.Meeting) error {
	issues := extractIssues(meeting)

	if err := w.db.CompleteMeeting(ctx, meeting.ID, issues); err != nil {
		return err
	}

	w.publishCompleted(meeting, len(issues))

	logging.Info().
		Str("meeting_id", meeting.ID).
		Str("project_id", meeting.ProjectID).
		Int("issues", len(issues)).
		Msg("Meeting completed")
	return nil
}

// extractIssues produces placeholder issue rows for a recording. A
// transcription backend would replace this with real segmentation.
func extractIssues(meeting *models.Meeting) []models.MeetingIssue {
	return []models.MeetingIssue{
		{
			Start:    "00:00",
			End:      "05:00",
			Gist:     "Opening discussion",
			Headline: meeting.Name + ": opening discussion",
			Summary:  "The team reviewed the agenda and current project state.",
		},
		{
			Start:    "05:00",
			End:      "10:00",
			Gist:     "Action items",
			Headline: meeting.Name + ": action items",
			Summary:  "Follow-up tasks were assigned; see the recording for owners.",
		},
	}
}

func (w *Worker) publishCompleted(meeting *models.Meeting, issueCount int) {
	if w.bus == nil {
		return
	}

	event, err := events.NewEvent(events.TopicMeetingCompleted, meeting.ProjectID, events.MeetingPayload{
		MeetingID: meeting.ID,
		Name:      meeting.Name,
		Issues:    issueCount,
	})
	if err != nil {
		logging.Error().Err(err).Msg("Failed to build meeting event")
		return
	}
	if err := w.bus.Publish(event); err != nil {
		logging.Error().Err(err).Msg("Failed to publish meeting event")
	}
}
