package relay

import (
	"context"

	"github.com/coder/websocket"
)

// Client represents a single live WebSocket connection admitted to the
// registry. Delivery goes through the buffered Send channel so that one slow
// recipient never stalls a fan-out.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// NewClient wraps an accepted connection. The id is assigned by the
// transport layer on accept.
func NewClient(id string, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
}

// WritePump reads from the Send channel and writes to the WebSocket
// connection until the channel closes or the context is done.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}
