package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/versus-relay/relay/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client represents one WebSocket connection. It implements
// coordinator.Conn; its id is the opaque token the coordinator keys
// membership on.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	mu     sync.Mutex
	closed bool
}

// ID returns the connection's opaque token.
func (c *Client) ID() string {
	return c.id
}

// Send marshals an event envelope and enqueues it for delivery.
// Fire-and-forget: a frame that cannot be queued is dropped.
func (c *Client) Send(event string, data interface{}) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Failed to marshal %s event for %s: %v", event, c.id, err)
		return
	}
	c.enqueue(payload)
}

// enqueue places a pre-serialized frame on the outbound channel. A full
// buffer drops the frame; a dead client is reaped by its write pump.
func (c *Client) enqueue(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("Send buffer full for %s, dropping frame", c.id)
	}
}

// close marks the client dead and closes its send channel exactly once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps frames from the WebSocket connection to the coordinator.
// When the connection drops, the coordinator is notified so room cleanup
// happens before the client is torn down.
func (c *Client) readPump() {
	defer func() {
		c.hub.handler.Disconnect(c)
		c.hub.removeClient(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error from %s: %v", c.id, err)
			}
			break
		}

		env, err := protocol.DecodeEnvelope(raw)
		if err != nil {
			log.Printf("Dropping frame from %s: %v", c.id, err)
			continue
		}

		c.hub.handler.Dispatch(c, env)
	}
}

// writePump pumps frames from the send channel to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
