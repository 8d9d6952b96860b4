package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"versize/internal/models"
	"versize/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 5
	maxTotalConns   = 500
)

var (
	ErrUserConnLimit  = errors.New("user connection limit reached")
	ErrTotalConnLimit = errors.New("server connection limit reached")
	ErrHubClosed      = errors.New("hub is shut down")
)

// Hub tracks panel feed connections and broadcasts lifecycle events to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	perUser map[string]int
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		perUser: make(map[string]int),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "panel feed" }

// Register adds a connection for a reviewer.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrTotalConnLimit
	}
	if h.perUser[userID] >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	h.clients[client] = struct{}{}
	h.perUser[userID]++
	observability.PanelConnections.Inc()
	return client, nil
}

// UnregisterClient removes a connection. It is safe to call more than once.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	if h.perUser[client.UserID]--; h.perUser[client.UserID] <= 0 {
		delete(h.perUser, client.UserID)
	}
	close(client.Send)
	observability.PanelConnections.Dec()
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.clients {
		c.TrySend(data)
	}
}

// Publish delivers an event straight to local clients. It serves as the event
// publisher when no Redis is configured.
func (h *Hub) Publish(_ context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	h.BroadcastAll(string(payload))
	return nil
}

// StartWiring relays every event from the Redis channel to local clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartEventSubscriber(ctx, h.BroadcastAll)
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for client := range h.clients {
		if client.Conn != nil {
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				slog.Warn("failed to write close message", "user_id", client.UserID, "error", err)
			}
			_ = client.Conn.Close()
		}
		delete(h.clients, client)
		close(client.Send)
		observability.PanelConnections.Dec()
	}
	h.perUser = make(map[string]int)
	return nil
}
