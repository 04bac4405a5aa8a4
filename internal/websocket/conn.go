package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/wishlist-backend/pkg/logger"
)

// Maximum message size allowed from peer.
const maxMessageSize = 4 * 1024

// Client is one viewer connection watching one wishlist.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	slug string
	send chan []byte

	messageCount  int
	lastResetTime time.Time
}

func newClient(hub *Hub, conn *websocket.Conn, slug string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		slug:          slug,
		send:          make(chan []byte, hub.opts.SendBuffer),
		lastResetTime: time.Now(),
	}
}

// allow counts an inbound frame against the per-second budget.
func (c *Client) allow(now time.Time) bool {
	if now.Sub(c.lastResetTime) >= time.Second {
		c.messageCount = 0
		c.lastResetTime = now
	}
	c.messageCount++
	return c.messageCount <= c.hub.opts.MaxMessagesPerSecond
}

// ReadPump keeps the connection alive. Viewers have nothing to say to the
// server, so inbound frames are read and discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.hub.opts.PongWait
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", map[string]interface{}{
					"wishlist_slug": c.slug,
					"error":         err.Error(),
				})
			}
			return
		}

		if !c.allow(time.Now()) {
			logger.Warn("Rate limit exceeded", map[string]interface{}{
				"wishlist_slug": c.slug,
				"count":         c.messageCount,
			})
		}
	}
}

// WritePump forwards change events and pings until the hub closes send.
func (c *Client) WritePump() {
	writeWait := c.hub.opts.WriteWait
	ticker := time.NewTicker((c.hub.opts.PongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("Failed to write change event", map[string]interface{}{
					"wishlist_slug": c.slug,
					"error":         err.Error(),
				})
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
