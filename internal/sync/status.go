// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package sync

import (
	stdsync "sync"
	"time"

	"github.com/dionysus-app/dionysus/internal/models"
)

// statusRegistry tracks the latest sync run per project in memory.
// Status is process-local; a restart forgets past runs, which is
// fine since the commits themselves are durable.
type statusRegistry struct {
	mu       stdsync.RWMutex
	statuses map[string]*models.SyncStatus
}

func newStatusRegistry() *statusRegistry {
	return &statusRegistry{statuses: make(map[string]*models.SyncStatus)}
}

// get returns a copy so callers never race with the running sync.
func (r *statusRegistry) get(projectID string) *models.SyncStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[projectID]
	if !ok {
		return nil
	}

	copied := *status
	copied.Errors = append([]string(nil), status.Errors...)
	return &copied
}

func (r *statusRegistry) start(projectID string) *models.SyncStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := &models.SyncStatus{
		ProjectID: projectID,
		State:     models.SyncStateRunning,
		StartedAt: time.Now().UTC(),
	}
	r.statuses[projectID] = status
	return status
}

func (r *statusRegistry) setListed(projectID string, listed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.statuses[projectID]; ok {
		status.Listed = listed
	}
}

func (r *statusRegistry) setNew(projectID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.statuses[projectID]; ok {
		status.New = n
	}
}

func (r *statusRegistry) recordSummarized(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.statuses[projectID]; ok {
		status.Summarized++
	}
}

func (r *statusRegistry) recordFailure(projectID, errText string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status, ok := r.statuses[projectID]; ok {
		status.Failed++
		status.Errors = append(status.Errors, errText)
	}
}

func (r *statusRegistry) finish(projectID, state, errText string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.statuses[projectID]
	if !ok {
		return
	}

	now := time.Now().UTC()
	status.State = state
	status.CompletedAt = &now
	if errText != "" {
		status.Errors = append(status.Errors, errText)
	}
}
