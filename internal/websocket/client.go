package websocket

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 30 * time.Second

	// Send ping frames to the peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size. Viewers only send small subscribe frames.
	maxMessageSize = 512

	// Outbound buffer size per client. Reveal bursts stay well under this.
	clientBufferSize = 128
)

// Client is the middleman between one WebSocket connection and the hub.
// Viewers are anonymous: a connection id is all the identity a client has.
type Client struct {
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	sendClosed atomic.Bool

	// Contest the client currently watches, 0 when none.
	contestID atomic.Uint64
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, clientBufferSize),
	}
}

// ContestID returns the contest the client is subscribed to, 0 when none.
func (c *Client) ContestID() uint {
	return uint(c.contestID.Load())
}

// closeSend closes the outbound channel exactly once.
func (c *Client) closeSend() {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
	}
}

// queue enqueues a message without blocking the hub. A client that cannot
// keep up is dropped.
func (c *Client) queue(message []byte) bool {
	if c.sendClosed.Load() {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		log.Printf("[WebSocket] Client %s send buffer full, dropping connection", c.ConnectionID)
		return false
	}
}

// StartPumps launches the read and write pumps. The caller's handler receives
// every inbound message; a handler error closes the connection.
func (c *Client) StartPumps(handler func(message []byte, client *Client) error) {
	go c.writePump()
	go c.readPump(handler)
}

// readPump reads messages from the connection and feeds them to the handler.
// It also maintains the pong deadline.
func (c *Client) readPump(handler func(message []byte, client *Client) error) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Client %s read error: %v", c.ConnectionID, err)
			}
			return
		}
		if handler == nil {
			continue
		}
		if err := handler(message, c); err != nil {
			log.Printf("[WebSocket] Client %s handler error, closing: %v", c.ConnectionID, err)
			return
		}
	}
}

// writePump drains the send channel into the connection and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
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
