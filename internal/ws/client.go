package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

func (g *Gateway) readPump(ctx context.Context, c *Client) {
	defer func() {
		g.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(g.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.log.Warn("Websocket closed unexpectedly", "user_id", c.userID, "error", err)
			}
			return
		}
		g.handleEvent(ctx, c, message)
	}
}

func (g *Gateway) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
