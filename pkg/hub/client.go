package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // clients only send control frames

	sendBuffer = 16
)

// Conn is the subset of a websocket connection the hub uses.
// *websocket.Conn from gofiber satisfies it.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one websocket subscriber.
type Client struct {
	hub  *Hub
	conn Conn
	send chan Message
}

// NewClient registers conn with h. If h has stopped the client is returned
// with a closed send channel and Run exits immediately.
func NewClient(h *Hub, conn Conn) *Client {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
	return c
}

// Run pumps messages until the connection drops. It blocks, so call it from
// the websocket handler.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only goroutine that writes to conn.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind := websocket.TextMessage
			if msg.Type == BinaryMessage {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, msg.Data); err != nil {
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
