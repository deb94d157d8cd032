// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package services

import (
	"context"

	"github.com/dionysus-app/dionysus/internal/events"
)

// BusBridge interface matches *websocket.Hub's RunBridge method, which
// consumes bus events and rebroadcasts them to connected clients.
type BusBridge interface {
	RunBridge(ctx context.Context, bus *events.Bus) error
}

// EventBridgeService runs the bus-to-hub event bridge as a supervised
// service. It belongs in the messaging layer next to the hub itself so
// both restart together if either crashes.
type EventBridgeService struct {
	bridge BusBridge
	bus    *events.Bus
	name   string
}

// NewEventBridgeService creates a new event bridge service wrapper.
func NewEventBridgeService(bridge BusBridge, bus *events.Bus) *EventBridgeService {
	return &EventBridgeService{
		bridge: bridge,
		bus:    bus,
		name:   "event-bridge",
	}
}

// Serve implements suture.Service. It delegates to RunBridge, which
// returns when the context is canceled or the bus subscription closes.
func (e *EventBridgeService) Serve(ctx context.Context) error {
	return e.bridge.RunBridge(ctx, e.bus)
}

// String implements fmt.Stringer for logging.
func (e *EventBridgeService) String() string {
	return e.name
}
