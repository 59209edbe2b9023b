// ReelMatch - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/logging"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypeCatalogSynced        = "catalog_synced"
	MessageTypeRecommendationsReady = "recommendations_ready"
	MessageTypeTrendingUpdated      = "trending_updated"
	MessageTypePing                 = "ping"
	MessageTypePong                 = "pong"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// outbound is a message with an optional target user. userID 0 means
// every client.
type outbound struct {
	msg    Message
	userID int64
}

// Hub maintains the set of active clients and routes messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan outbound, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes every
// client and returns ctx.Err(). Client lifecycle events are handled before
// queued messages.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case out := <-h.broadcast:
			h.deliver(out)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int64("user_id", client.userID).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int64("user_id", client.userID).Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// sortedClients returns clients in connection order. Caller holds mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// deliver sends out to matching clients in connection order. Clients with
// a full send queue are dropped.
func (h *Hub) deliver(out outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var toRemove []*Client
	for _, client := range h.sortedClients() {
		if out.userID != 0 && client.userID != out.userID {
			continue
		}
		select {
		case client.send <- out.msg:
		default:
			toRemove = append(toRemove, client)
		}
	}
	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		logging.Warn().Int("dropped", len(toRemove)).Msg("dropped slow websocket clients")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) enqueue(out outbound) {
	select {
	case h.broadcast <- out:
	default:
		logging.Warn().Str("message_type", out.msg.Type).Msg("broadcast channel full, dropping message")
	}
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.enqueue(outbound{msg: Message{Type: messageType, Data: data}})
}

// SendToUser queues a message for the clients of one user.
func (h *Hub) SendToUser(userID int64, messageType string, data interface{}) {
	if userID == 0 {
		return
	}
	h.enqueue(outbound{msg: Message{Type: messageType, Data: data}, userID: userID})
}

// TrendingUpdatedData is sent with trending_updated.
type TrendingUpdatedData struct {
	Timestamp string `json:"timestamp"`
	Count     int    `json:"count"`
}

// BroadcastTrendingUpdated tells clients trending recommendations changed.
func (h *Hub) BroadcastTrendingUpdated(count int) {
	h.Broadcast(MessageTypeTrendingUpdated, TrendingUpdatedData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Count:     count,
	})
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserClientCount returns the number of clients connected for userID.
func (h *Hub) UserClientCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.userID == userID {
			n++
		}
	}
	return n
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
