// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package events

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestPublishSubscribeRoundTrip(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.Subscribe(ctx, TopicCommitSummarized)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	bus.PublishPayload(TopicCommitSummarized, "proj-1", CommitPayload{Hash: "abc123"})

	select {
	case event := <-events:
		if event.Topic != TopicCommitSummarized {
			t.Errorf("Topic = %q, want %q", event.Topic, TopicCommitSummarized)
		}
		if event.ProjectID != "proj-1" {
			t.Errorf("ProjectID = %q, want proj-1", event.ProjectID)
		}
		var payload CommitPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			t.Fatalf("Unmarshal payload: %v", err)
		}
		if payload.Hash != "abc123" {
			t.Errorf("Hash = %q, want abc123", payload.Hash)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeAllMergesTopics(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := bus.SubscribeAll(ctx)
	if err != nil {
		t.Fatalf("SubscribeAll() error = %v", err)
	}

	bus.PublishPayload(TopicCommitDiscovered, "proj-1", CommitPayload{Hash: "aaa"})
	bus.PublishPayload(TopicSyncCompleted, "proj-1", SyncCompletedPayload{State: "completed", New: 1})

	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case event := <-events:
			seen[event.Topic] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, saw topics %v", seen)
		}
	}

	if !seen[TopicCommitDiscovered] || !seen[TopicSyncCompleted] {
		t.Errorf("missing topics, saw %v", seen)
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)
	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	event, err := NewEvent(TopicCommitFailed, "proj-1", CommitPayload{Hash: "x", Error: "boom"})
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}

	if err := bus.Publish(event); err == nil {
		t.Error("expected error publishing on closed bus")
	}
}
