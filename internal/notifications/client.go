package notifications

import (
	"log/slog"
	"time"

	"versize/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedIdleTimeout  = 60 * time.Second
	// Must stay below feedIdleTimeout so a healthy reviewer never idles out.
	feedPingEvery = 54 * time.Second
	// Reviewers never send payloads; only control frames arrive.
	feedMaxInbound = 512
	feedBuffer     = 64
)

// Client is one reviewer's live feed connection.
type Client struct {
	hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, feedBuffer)}
}

func (c *Client) extendIdle() error {
	return c.Conn.SetReadDeadline(time.Now().Add(feedIdleTimeout))
}

// ReadPump blocks until the reviewer disconnects, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(feedMaxInbound)
	_ = c.extendIdle()
	c.Conn.SetPongHandler(func(string) error { return c.extendIdle() })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("panel feed read error", "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// WritePump delivers queued events and keeps the connection alive with pings.
// Events already waiting in the buffer are flushed in the same pass.
func (c *Client) WritePump() {
	ticker := time.NewTicker(feedPingEvery)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, event); err != nil {
				return
			}
			for pending := len(c.Send); pending > 0; pending-- {
				if err := c.write(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
	return c.Conn.WriteMessage(messageType, data)
}

// TrySend queues an event without blocking. Events for a slow or closed client are dropped.
func (c *Client) TrySend(event []byte) {
	defer func() {
		if recover() != nil {
			observability.PanelBackpressureDrops.Inc()
		}
	}()

	select {
	case c.Send <- event:
	default:
		observability.PanelBackpressureDrops.Inc()
		slog.Warn("panel feed buffer full, dropped event", "user_id", c.UserID)
	}
}
