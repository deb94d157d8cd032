// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

// Package websocket pushes sync progress and billing events to
// connected browsers. The hub fans events from the bus out to every
// client; slow clients are dropped rather than allowed to stall the
// broadcast loop.
package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dionysus-app/dionysus/internal/logging"
	"github.com/dionysus-app/dionysus/internal/metrics"
)

// Message types sent to clients.
const (
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
	MessageTypeCommitDiscovered = "commit_discovered"
	MessageTypeCommitSummarized = "commit_summarized"
	MessageTypeCommitFailed     = "commit_failed"
	MessageTypeSyncCompleted    = "sync_completed"
	MessageTypeMeetingCompleted = "meeting_completed"
	MessageTypeCreditsPurchased = "credits_purchased"
)

// Message is one frame on the wire.
type Message struct {
	Type      string      `json:"type"`
	ProjectID string      `json:"project_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// envelope pairs a wire message with its delivery scope. The target
// user ID never reaches the wire; it only routes user-scoped events
// such as billing updates.
type envelope struct {
	msg    Message
	userID string
}

// Hub maintains the set of active clients and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub with a buffered broadcast channel.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan envelope, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub loop until ctx is canceled. Lifecycle
// events are drained before broadcasts so client state is consistent
// when a message goes out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case env := <-h.broadcast:
			h.broadcastToClients(env)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", reason).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// broadcastToClients sends a message to every eligible client in
// client ID order. User-scoped messages go only to that user's
// connections; project-scoped messages go only to project members.
// A client with a full send buffer is dropped.
func (h *Hub) broadcastToClients(env envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		if !client.wantsMessage(env) {
			continue
		}
		select {
		case client.send <- env.msg:
			metrics.WebSocketMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WebSocketConnections.Set(float64(len(h.clients)))
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebSocketConnections.Set(0)
}

// Broadcast queues a message without blocking. A non-empty projectID
// limits delivery to members of that project; a non-empty userID limits
// delivery to that user's connections. Both empty means every client.
func (h *Hub) Broadcast(messageType, projectID, userID string, data interface{}) {
	env := envelope{
		msg: Message{
			Type:      messageType,
			ProjectID: projectID,
			Data:      data,
		},
		userID: userID,
	}

	select {
	case h.broadcast <- env:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WaitForClients blocks until at least n clients are connected or the
// timeout expires. Test helper.
func (h *Hub) WaitForClients(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if h.ClientCount() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return h.ClientCount() >= n
}
