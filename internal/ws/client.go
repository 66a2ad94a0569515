package ws

import (
	"sync"

	"golang.org/x/net/websocket"
)

// Client is one websocket connection and its buffered outbox. Subscription
// state lives in the Hub.
type Client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		out:  make(chan []byte, 32),
	}
}

// send never blocks and never touches a closed outbox; a publish racing a
// disconnect is dropped.
func (c *Client) send(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.out <- payload:
	default:
		// Slow consumers are dropped rather than buffered without bound.
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// Close shuts the outbox exactly once; later sends become no-ops.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
