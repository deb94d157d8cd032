// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package websocket

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/dionysus-app/dionysus/internal/events"
	"github.com/dionysus-app/dionysus/internal/logging"
)

// topicMessageTypes maps bus topics to wire message types.
var topicMessageTypes = map[string]string{
	events.TopicCommitDiscovered: MessageTypeCommitDiscovered,
	events.TopicCommitSummarized: MessageTypeCommitSummarized,
	events.TopicCommitFailed:     MessageTypeCommitFailed,
	events.TopicSyncCompleted:    MessageTypeSyncCompleted,
	events.TopicMeetingCompleted: MessageTypeMeetingCompleted,
	events.TopicCreditsPurchased: MessageTypeCreditsPurchased,
}

// RunBridge consumes every bus topic and rebroadcasts to connected
// clients until ctx is canceled. Designed to run under supervision
// alongside RunWithContext.
func (h *Hub) RunBridge(ctx context.Context, bus *events.Bus) error {
	stream, err := bus.SubscribeAll(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-stream:
			if !ok {
				return ctx.Err()
			}

			messageType, known := topicMessageTypes[event.Topic]
			if !known {
				continue
			}

			var data interface{}
			if len(event.Payload) > 0 {
				if err := json.Unmarshal(event.Payload, &data); err != nil {
					logging.Warn().Err(err).Str("topic", event.Topic).Msg("failed to decode event payload")
					continue
				}
			}

			h.Broadcast(messageType, event.ProjectID, event.UserID, data)
		}
	}
}
