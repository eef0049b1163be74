package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

var errChannelClosed = errors.New("channel closed")

// WSChannel adapts a websocket connection to Channel. Writes are
// serialised because the connection allows one concurrent writer.
type WSChannel struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewWSChannel wraps conn.
func NewWSChannel(conn *websocket.Conn, writeTimeout time.Duration) *WSChannel {
	return &WSChannel{conn: conn, writeTimeout: writeTimeout, done: make(chan struct{})}
}

// Send writes payload as one text frame.
func (c *WSChannel) Send(payload []byte) error {
	return c.write(websocket.TextMessage, payload)
}

// Ping writes a keep-alive ping frame.
func (c *WSChannel) Ping() error {
	return c.write(websocket.PingMessage, nil)
}

func (c *WSChannel) write(messageType int, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteMessage(messageType, payload)
}

// Close closes the connection once.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Done is closed when the channel is closed.
func (c *WSChannel) Done() <-chan struct{} {
	return c.done
}

// KeepAlive pings every interval until the channel closes or a ping fails.
func (c *WSChannel) KeepAlive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Ping(); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
